package sui

import (
	"context"
	"time"
)

// DefaultPollInterval is the default interval for polling transaction status.
const DefaultPollInterval = time.Second

// GetObject returns an object by id.
func (c *Client) GetObject(ctx context.Context, objectID string, opts ObjectDataOptions) (*ObjectResponse, error) {
	var resp ObjectResponse
	if err := c.callInto(ctx, "sui_getObject", []interface{}{objectID, opts}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOwnedObjects returns a page of objects owned by owner that match query.
func (c *Client) GetOwnedObjects(ctx context.Context, owner string, query ObjectResponseQuery, cursor *string, limit int) (*ObjectsPage, error) {
	var page ObjectsPage
	if err := c.callInto(ctx, "suix_getOwnedObjects", []interface{}{owner, query, cursor, limitParam(limit)}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetDynamicFields returns a page of the dynamic fields of parentID.
func (c *Client) GetDynamicFields(ctx context.Context, parentID string, cursor *string, limit int) (*DynamicFieldPage, error) {
	var page DynamicFieldPage
	if err := c.callInto(ctx, "suix_getDynamicFields", []interface{}{parentID, cursor, limitParam(limit)}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetDynamicFieldObject returns the field object stored under name in parentID.
func (c *Client) GetDynamicFieldObject(ctx context.Context, parentID string, name DynamicFieldName) (*ObjectResponse, error) {
	var resp ObjectResponse
	if err := c.callInto(ctx, "suix_getDynamicFieldObject", []interface{}{parentID, name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransactionBlock returns an executed transaction by digest.
func (c *Client) GetTransactionBlock(ctx context.Context, digest string, opts TransactionBlockResponseOptions) (*TransactionBlockResponse, error) {
	var resp TransactionBlockResponse
	if err := c.callInto(ctx, "sui_getTransactionBlock", []interface{}{digest, opts}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitForTransaction polls for an executed transaction until it is available or ctx is done.
// A missing transaction is treated as transient and retried until the context deadline expires.
func (c *Client) WaitForTransaction(ctx context.Context, digest string, opts TransactionBlockResponseOptions, pollInterval time.Duration) (*TransactionBlockResponse, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	resp, err := c.GetTransactionBlock(ctx, digest, opts)
	if err == nil {
		return resp, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			resp, err := c.GetTransactionBlock(ctx, digest, opts)
			if err != nil {
				if IsNotFound(err) {
					continue
				}
				return nil, err
			}
			return resp, nil
		}
	}
}

func limitParam(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}
