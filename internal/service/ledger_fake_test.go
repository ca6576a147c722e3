package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

const (
	testPackage  = "0xa11ce"
	testRegistry = "0xbeef"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// fakeLedger is an in-memory LedgerReader keyed the way the node keys its data.
type fakeLedger struct {
	mu sync.Mutex

	objects      map[string]*sui.ObjectData
	objectErrs   map[string]error
	owned        map[string][]sui.ObjectResponse
	ownedErr     error
	fieldPages   map[string][]sui.DynamicFieldPage
	fieldsErr    error
	fieldObjects map[string]*sui.ObjectData
	fieldErrs    map[string]error
	fieldDelay   map[string]time.Duration
	txs          map[string]*sui.TransactionBlockResponse
	txErr        error

	calls map[string]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		objects:      make(map[string]*sui.ObjectData),
		objectErrs:   make(map[string]error),
		owned:        make(map[string][]sui.ObjectResponse),
		fieldPages:   make(map[string][]sui.DynamicFieldPage),
		fieldObjects: make(map[string]*sui.ObjectData),
		fieldErrs:    make(map[string]error),
		fieldDelay:   make(map[string]time.Duration),
		txs:          make(map[string]*sui.TransactionBlockResponse),
		calls:        make(map[string]int),
	}
}

func (f *fakeLedger) count(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeLedger) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeLedger) GetObject(_ context.Context, objectID string, _ sui.ObjectDataOptions) (*sui.ObjectResponse, error) {
	f.count("getObject")
	if err, ok := f.objectErrs[objectID]; ok {
		return nil, err
	}
	data, ok := f.objects[objectID]
	if !ok {
		return &sui.ObjectResponse{Error: &sui.ObjectError{Code: "notExists", ObjectID: objectID}}, nil
	}
	return &sui.ObjectResponse{Data: data}, nil
}

func (f *fakeLedger) GetOwnedObjects(_ context.Context, owner string, query sui.ObjectResponseQuery, _ *string, _ int) (*sui.ObjectsPage, error) {
	f.count("getOwnedObjects")
	if f.ownedErr != nil {
		return nil, f.ownedErr
	}
	structType := ""
	if query.Filter != nil {
		structType = query.Filter.StructType
	}
	return &sui.ObjectsPage{Data: f.owned[owner+"|"+structType]}, nil
}

func (f *fakeLedger) GetDynamicFields(_ context.Context, parentID string, cursor *string, _ int) (*sui.DynamicFieldPage, error) {
	f.count("getDynamicFields")
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	pages := f.fieldPages[parentID]
	index := 0
	if cursor != nil {
		index, _ = strconv.Atoi(*cursor)
	}
	if index >= len(pages) {
		return &sui.DynamicFieldPage{}, nil
	}
	page := pages[index]
	if index+1 < len(pages) {
		next := strconv.Itoa(index + 1)
		page.NextCursor = &next
		page.HasNextPage = true
	}
	return &page, nil
}

func (f *fakeLedger) GetDynamicFieldObject(ctx context.Context, parentID string, name sui.DynamicFieldName) (*sui.ObjectResponse, error) {
	f.count("getDynamicFieldObject")
	key := parentID + "|" + string(name.Value)
	if delay, ok := f.fieldDelay[key]; ok {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.fieldErrs[key]; ok {
		return nil, err
	}
	data, ok := f.fieldObjects[key]
	if !ok {
		return nil, &sui.RPCError{Code: -32000, Message: "Could not find the referenced object"}
	}
	return &sui.ObjectResponse{Data: data}, nil
}

func (f *fakeLedger) WaitForTransaction(ctx context.Context, digest string, _ sui.TransactionBlockResponseOptions, _ time.Duration) (*sui.TransactionBlockResponse, error) {
	f.count("waitForTransaction")
	if f.txErr != nil {
		return nil, f.txErr
	}
	if resp, ok := f.txs[digest]; ok {
		return resp, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func moveObject(id, objectType, fields string) *sui.ObjectData {
	return &sui.ObjectData{
		ObjectID: id,
		Type:     objectType,
		Content: &sui.MoveContent{
			DataType: sui.DataTypeMoveObject,
			Type:     objectType,
			Fields:   json.RawMessage(fields),
		},
	}
}

func addressField(key string) sui.DynamicFieldInfo {
	value, _ := json.Marshal(key)
	return sui.DynamicFieldInfo{
		Name: sui.DynamicFieldName{Type: "address", Value: value},
		Type: sui.DynamicFieldKindField,
	}
}

// seedRegistry installs a registry whose collections point at the tables of tableFor.
func (f *fakeLedger) seedRegistry(collections ...string) {
	fields := map[string]interface{}{}
	for _, collection := range collections {
		fields[collection] = map[string]interface{}{
			"type":   "0x2::table::Table<address, vector<ID>>",
			"fields": map[string]interface{}{"id": map[string]string{"id": tableFor(collection)}, "size": "0"},
		}
	}
	raw, _ := json.Marshal(fields)
	f.objects[testRegistry] = moveObject(testRegistry, testPackage+"::edu_defi::Registry", string(raw))
}

func (f *fakeLedger) seedTableValue(collection, key string, members ...string) {
	name, _ := json.Marshal(key)
	value, _ := json.Marshal(map[string]interface{}{"name": key, "value": members})
	f.fieldObjects[tableFor(collection)+"|"+string(name)] = moveObject("0xf"+strconv.Itoa(len(f.fieldObjects)), "0x2::dynamic_field::Field<address, vector<ID>>", string(value))
}

func tableFor(collection string) string {
	switch collection {
	case "students":
		return "0x7001"
	case "investors":
		return "0x7002"
	default:
		return "0x7003"
	}
}

func studentObject(id, fields string) *sui.ObjectData {
	data := moveObject(id, testPackage+"::student::Student", fields)
	data.Owner = json.RawMessage(`{"AddressOwner":"0x51"}`)
	return data
}
