package adapter

import "context"

// Assistant is the hex port for the coaching chat assistant.
// Reply answers a single visitor message; floating asks for a reply short
// enough for the small floating chat widget.
type Assistant interface {
	Reply(ctx context.Context, message string, floating bool) (string, error)
}
