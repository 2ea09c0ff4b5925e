package envelope

import (
	"encoding/json"
	"fmt"
)

// Kind is the type tag discriminating the three message variants.
type Kind string

const (
	// KindQueryRequest asks the current leader to execute a statement.
	KindQueryRequest Kind = "query-request"

	// KindQueryResponse carries the outcome of a forwarded statement back
	// to whichever worker registered the matching query id.
	KindQueryResponse Kind = "query-response"

	// KindNewLeader announces that a worker has won the election and has
	// an initialized database. Currently informational only; reserved for
	// future re-election/replay logic.
	KindNewLeader Kind = "new-leader"
)

// Message is the tagged union for all bus traffic. Which fields are
// meaningful depends on Type; the constructors below populate exactly the
// fields the variant requires.
type Message struct {
	Type Kind `json:"type"`

	// QueryID correlates a request with its response.
	// Set for query-request and query-response.
	QueryID string `json:"queryId,omitempty"`

	// SQL is the statement to execute. Set for query-request.
	SQL string `json:"sql,omitempty"`

	// Result is the encoded result set. Set for a successful
	// query-response. Pointer so an empty result set ("[]") survives
	// the omitempty round trip.
	Result *string `json:"result,omitempty"`

	// Error is the failure text. Set for a failed query-response.
	Error *string `json:"error,omitempty"`

	// LeaderID identifies the elected worker. Set for new-leader.
	LeaderID string `json:"leaderId,omitempty"`
}

// NewQueryRequest builds a query-request for the given correlation id
// and statement.
func NewQueryRequest(queryID, sql string) Message {
	return Message{Type: KindQueryRequest, QueryID: queryID, SQL: sql}
}

// NewQueryResponse builds a successful query-response carrying the
// encoded result set.
func NewQueryResponse(queryID, result string) Message {
	return Message{Type: KindQueryResponse, QueryID: queryID, Result: &result}
}

// NewErrorResponse builds a failed query-response carrying the error text.
func NewErrorResponse(queryID, errText string) Message {
	return Message{Type: KindQueryResponse, QueryID: queryID, Error: &errText}
}

// NewLeaderAnnouncement builds a new-leader announcement.
func NewLeaderAnnouncement(leaderID string) Message {
	return Message{Type: KindNewLeader, LeaderID: leaderID}
}

// IsError reports whether a query-response carries an error.
// Per the protocol, the error takes precedence if both fields are present.
func (m Message) IsError() bool {
	return m.Error != nil
}

// Encode serializes the message to its wire form.
func (m Message) Encode() ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Type, err)
	}
	return b, nil
}

// Decode parses and validates a wire payload. Any payload that does not
// carry a well-formed variant is rejected; callers are expected to drop
// the message silently.
func Decode(frame []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}

	if err := m.validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// validate enforces the per-variant required fields.
func (m Message) validate() error {
	switch m.Type {
	case KindQueryRequest:
		if m.QueryID == "" {
			return fmt.Errorf("%s: missing queryId", m.Type)
		}
		if m.SQL == "" {
			return fmt.Errorf("%s: missing sql", m.Type)
		}
	case KindQueryResponse:
		if m.QueryID == "" {
			return fmt.Errorf("%s: missing queryId", m.Type)
		}
		if m.Result == nil && m.Error == nil {
			return fmt.Errorf("%s: neither result nor error present", m.Type)
		}
	case KindNewLeader:
		if m.LeaderID == "" {
			return fmt.Errorf("%s: missing leaderId", m.Type)
		}
	default:
		return fmt.Errorf("unknown message type %q", string(m.Type))
	}
	return nil
}
