package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// ReplyCollector waits for the next textual reply from a specific user
// in a specific channel. Messages rejected by the accept predicate are
// ignored and the wait continues. The wait ends when an accepted
// message arrives, ctx's deadline passes, or ctx is cancelled; the
// latter two surface as ctx.Err().
type ReplyCollector interface {
	AwaitReply(
		ctx context.Context,
		channelID, userID snowflake.ID,
		accept func(content string) bool,
	) (string, error)
}
