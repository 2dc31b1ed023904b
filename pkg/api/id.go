package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	callIDPrefix = "msg_"
)

var (
	callIDPattern = regexp.MustCompile(`^msg_[a-zA-Z0-9]{24}$`)

	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewCallID generates an identifier for one process_message call: the
// "msg_" prefix followed by 24 cryptographically random alphanumeric
// characters.
func NewCallID() string {
	return callIDPrefix + randomAlphanumeric(idLength)
}

// ValidateCallID checks whether the given string is a valid call ID.
func ValidateCallID(id string) bool {
	return callIDPattern.MatchString(id)
}

// NewHistoryID returns a lexically sortable ULID for a chat-history entry.
func NewHistoryID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ValidateHistoryID reports whether id parses as a ULID.
func ValidateHistoryID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
