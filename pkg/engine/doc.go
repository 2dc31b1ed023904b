// Package engine implements the tool-call orchestration loop. For each user
// message it asks the completion provider for the next turn, screens the
// proposed tool requests against the availability policy, binds caller
// identity into their arguments, executes the allowed ones through the tool
// registry, and feeds the results back until the model answers or the round
// budget runs out.
//
// The engine never touches global session state: callers hand it one
// Conversation per call and must serialize calls per conversation.
package engine
