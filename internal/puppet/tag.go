package puppet

import "context"

// Tags are not meaningful for the sidecar. The operations always succeed
// and never reach the agent.

func (a *Adapter) TagContactAdd(ctx context.Context, tagID, contactID string) error {
	_, err := local(ctx, a, "tagContactAdd", []interface{}{tagID, contactID}, noop)
	return err
}

func (a *Adapter) TagContactRemove(ctx context.Context, tagID, contactID string) error {
	_, err := local(ctx, a, "tagContactRemove", []interface{}{tagID, contactID}, noop)
	return err
}

func (a *Adapter) TagContactDelete(ctx context.Context, tagID string) error {
	_, err := local(ctx, a, "tagContactDelete", []interface{}{tagID}, noop)
	return err
}

// TagContactList returns no tags, for contactID or overall.
func (a *Adapter) TagContactList(ctx context.Context, contactID *string) ([]string, error) {
	return local(ctx, a, "tagContactList", optional(nil, contactID), func() ([]string, error) {
		return []string{}, nil
	})
}

func noop() (struct{}, error) {
	return struct{}{}, nil
}
