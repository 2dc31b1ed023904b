// Package tools defines the tool contract used by the orchestration loop:
// the closed ToolID enumeration, tool descriptors and decoded arguments,
// the availability policy that decides which requested tools may run,
// and the injector that binds caller identity into tool arguments.
//
// This package depends only on the standard library and pkg/debug.
package tools
