package sui

import (
	"encoding/json"
	"strings"
)

// Object content data types.
const (
	DataTypeMoveObject = "moveObject"
	DataTypePackage    = "package"
)

// Dynamic field kinds as reported by suix_getDynamicFields.
const (
	DynamicFieldKindField  = "DynamicField"
	DynamicFieldKindObject = "DynamicObject"
)

// Object change kinds in transaction responses.
const (
	ObjectChangeCreated   = "created"
	ObjectChangeMutated   = "mutated"
	ObjectChangeDeleted   = "deleted"
	ObjectChangeWrapped   = "wrapped"
	ObjectChangePublished = "published"
)

// Transaction execution status values.
const (
	ExecutionSuccess = "success"
	ExecutionFailure = "failure"
)

// ObjectDataOptions selects which parts of an object the node returns.
type ObjectDataOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
}

// ObjectResponse is the result of sui_getObject and the element of owned-object pages.
type ObjectResponse struct {
	Data  *ObjectData  `json:"data,omitempty"`
	Error *ObjectError `json:"error,omitempty"`
}

// ObjectError explains why no data was returned for an object.
type ObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

// ObjectData carries the requested parts of an on-chain object.
type ObjectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version"`
	Digest   string          `json:"digest"`
	Type     string          `json:"type,omitempty"`
	Owner    json.RawMessage `json:"owner,omitempty"`
	Content  *MoveContent    `json:"content,omitempty"`
}

// MoveContent is the parsed content of an object.
type MoveContent struct {
	DataType          string          `json:"dataType"`
	Type              string          `json:"type,omitempty"`
	HasPublicTransfer bool            `json:"hasPublicTransfer,omitempty"`
	Fields            json.RawMessage `json:"fields,omitempty"`
}

// IsMoveObject reports whether the content is a structured Move object.
func (c *MoveContent) IsMoveObject() bool {
	return c != nil && c.DataType == DataTypeMoveObject
}

// OwnerAddress returns the owning address of an address-owned object, or "" for shared,
// immutable and object-owned objects.
func (d *ObjectData) OwnerAddress() string {
	if d == nil || len(d.Owner) == 0 {
		return ""
	}

	var owner struct {
		AddressOwner string `json:"AddressOwner"`
	}
	if err := json.Unmarshal(d.Owner, &owner); err != nil {
		return ""
	}
	return owner.AddressOwner
}

// StructType returns the object's Move type, preferring the content type.
func (d *ObjectData) StructType() string {
	if d == nil {
		return ""
	}
	if d.Content != nil && d.Content.Type != "" {
		return d.Content.Type
	}
	return d.Type
}

// ObjectResponseQuery is the query argument of suix_getOwnedObjects.
type ObjectResponseQuery struct {
	Filter  *ObjectFilter      `json:"filter,omitempty"`
	Options *ObjectDataOptions `json:"options,omitempty"`
}

// ObjectFilter restricts owned-object queries.
type ObjectFilter struct {
	StructType string `json:"StructType,omitempty"`
}

// ObjectsPage is a page of owned objects.
type ObjectsPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

// DynamicFieldName identifies a dynamic field under its parent.
type DynamicFieldName struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// DynamicFieldInfo is an entry of a dynamic field page.
type DynamicFieldInfo struct {
	Name       DynamicFieldName `json:"name"`
	BcsName    string           `json:"bcsName,omitempty"`
	Type       string           `json:"type"`
	ObjectType string           `json:"objectType"`
	ObjectID   string           `json:"objectId"`
	Digest     string           `json:"digest,omitempty"`
}

// IsObjectField reports whether the entry's value object is inlined as ObjectID.
func (f DynamicFieldInfo) IsObjectField() bool {
	return f.Type == DynamicFieldKindObject
}

// NameString returns the field name value when it is a JSON string (e.g. an address key).
func (f DynamicFieldInfo) NameString() string {
	var s string
	if err := json.Unmarshal(f.Name.Value, &s); err != nil {
		return strings.Trim(string(f.Name.Value), `"`)
	}
	return s
}

// DynamicFieldPage is a page of dynamic fields.
type DynamicFieldPage struct {
	Data        []DynamicFieldInfo `json:"data"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}

// TransactionBlockResponseOptions selects the parts of a transaction response.
type TransactionBlockResponseOptions struct {
	ShowInput          bool `json:"showInput,omitempty"`
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

// TransactionBlockResponse is the confirmation receipt of an executed transaction.
type TransactionBlockResponse struct {
	Digest        string              `json:"digest"`
	Effects       *TransactionEffects `json:"effects,omitempty"`
	ObjectChanges []ObjectChange      `json:"objectChanges,omitempty"`
	Events        []Event             `json:"events,omitempty"`
	TimestampMs   string              `json:"timestampMs,omitempty"`
	Checkpoint    string              `json:"checkpoint,omitempty"`
}

// TransactionEffects carries the execution status.
type TransactionEffects struct {
	Status ExecutionStatus `json:"status"`
}

// ExecutionStatus reports whether the transaction executed successfully.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ObjectChange describes one object touched by a transaction.
type ObjectChange struct {
	Type       string          `json:"type"`
	Sender     string          `json:"sender,omitempty"`
	Owner      json.RawMessage `json:"owner,omitempty"`
	ObjectType string          `json:"objectType,omitempty"`
	ObjectID   string          `json:"objectId,omitempty"`
	PackageID  string          `json:"packageId,omitempty"`
	Version    string          `json:"version,omitempty"`
	Digest     string          `json:"digest,omitempty"`
}

// IsCreated reports whether the change created a new object.
func (c ObjectChange) IsCreated() bool {
	return c.Type == ObjectChangeCreated && c.ObjectID != ""
}

// Event is a Move event emitted by a transaction.
type Event struct {
	ID struct {
		TxDigest string `json:"txDigest"`
		EventSeq string `json:"eventSeq"`
	} `json:"id"`
	PackageID         string          `json:"packageId"`
	TransactionModule string          `json:"transactionModule"`
	Sender            string          `json:"sender"`
	Type              string          `json:"type"`
	ParsedJSON        json.RawMessage `json:"parsedJson,omitempty"`
}
