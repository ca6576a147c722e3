package sui_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *sui.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := sui.NewClient(sui.Config{RPCURL: server.URL})
	require.NoError(t, err)
	return client
}

func makeRPCResponse(result interface{}) []byte {
	resultJSON, _ := json.Marshal(result)
	data, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  json.RawMessage(resultJSON),
	})
	return data
}

func makeRPCError(code int, message string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
	return data
}

func decodeCall(t *testing.T, r *http.Request) rpcCall {
	t.Helper()
	var call rpcCall
	require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
	return call
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := sui.NewClient(sui.Config{})
	require.Error(t, err)
}

func TestGetObjectDecodesContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		require.Equal(t, "sui_getObject", call.Method)
		require.JSONEq(t, `"0xabc"`, string(call.Params[0]))
		require.JSONEq(t, `{"showOwner":true,"showContent":true}`, string(call.Params[1]))

		_, _ = w.Write(makeRPCResponse(map[string]interface{}{
			"data": map[string]interface{}{
				"objectId": "0xabc",
				"version":  "7",
				"digest":   "d",
				"owner":    map[string]string{"AddressOwner": "0xowner"},
				"content": map[string]interface{}{
					"dataType": "moveObject",
					"type":     "0xpkg::student::Student",
					"fields":   map[string]interface{}{"name": "Alice"},
				},
			},
		}))
	})

	resp, err := client.GetObject(context.Background(), "0xabc", sui.ObjectDataOptions{ShowOwner: true, ShowContent: true})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	require.True(t, resp.Data.Content.IsMoveObject())
	require.Equal(t, "0xowner", resp.Data.OwnerAddress())
	require.Equal(t, "0xpkg::student::Student", resp.Data.StructType())
	require.JSONEq(t, `{"name":"Alice"}`, string(resp.Data.Content.Fields))
}

func TestCallReturnsRPCError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(makeRPCError(-32602, "Invalid params"))
	})

	_, err := client.GetDynamicFields(context.Background(), "0xtable", nil, 10)
	require.Error(t, err)

	var rpcErr *sui.RPCError
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, -32602, rpcErr.Code)
	require.False(t, sui.IsNotFound(err))
}

func TestGetDynamicFieldsPassesCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		require.Equal(t, "suix_getDynamicFields", call.Method)
		require.JSONEq(t, `"cursor-1"`, string(call.Params[1]))
		require.JSONEq(t, `25`, string(call.Params[2]))

		_, _ = w.Write(makeRPCResponse(map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"name":       map[string]interface{}{"type": "address", "value": "0xkey"},
					"type":       "DynamicField",
					"objectType": "address",
					"objectId":   "0xfield",
					"version":    12,
				},
			},
			"nextCursor":  nil,
			"hasNextPage": false,
		}))
	})

	cursor := "cursor-1"
	page, err := client.GetDynamicFields(context.Background(), "0xtable", &cursor, 25)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "0xkey", page.Data[0].NameString())
	require.False(t, page.Data[0].IsObjectField())
	require.False(t, page.HasNextPage)
}

func TestWaitForTransactionRetriesUntilFound(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		call := decodeCall(t, r)
		require.Equal(t, "sui_getTransactionBlock", call.Method)
		require.JSONEq(t, `{"showEffects":true,"showEvents":true,"showObjectChanges":true}`, string(call.Params[1]))

		if calls.Add(1) < 3 {
			_, _ = w.Write(makeRPCError(-32602, "Could not find the referenced transaction [TransactionDigest(abc)]."))
			return
		}
		_, _ = w.Write(makeRPCResponse(map[string]interface{}{
			"digest":  "abc",
			"effects": map[string]interface{}{"status": map[string]string{"status": "success"}},
			"objectChanges": []map[string]interface{}{
				{"type": "created", "objectType": "0xpkg::contract::Contract", "objectId": "0xc1"},
			},
		}))
	})

	opts := sui.TransactionBlockResponseOptions{ShowEffects: true, ShowEvents: true, ShowObjectChanges: true}
	resp, err := client.WaitForTransaction(context.Background(), "abc", opts, 5*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, sui.ExecutionSuccess, resp.Effects.Status.Status)
	require.Len(t, resp.ObjectChanges, 1)
	require.True(t, resp.ObjectChanges[0].IsCreated())
}

func TestWaitForTransactionHonoursDeadline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(makeRPCError(-32602, "Could not find the referenced transaction"))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := client.WaitForTransaction(ctx, "abc", sui.TransactionBlockResponseOptions{}, 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestObserverSeesEveryCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(makeRPCError(-1, "boom"))
	}))
	t.Cleanup(server.Close)

	var observed []string
	client, err := sui.NewClient(sui.Config{
		RPCURL: server.URL,
		Observer: func(method, status string, _ time.Duration) {
			observed = append(observed, method+":"+status)
		},
	})
	require.NoError(t, err)

	_, _ = client.GetObject(context.Background(), "0x1", sui.ObjectDataOptions{})
	require.Equal(t, []string{"sui_getObject:error"}, observed)
}

func TestRemoteSignerReturnsDigest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sign-and-execute", r.URL.Path)
		var body struct {
			Sender  string      `json:"sender"`
			Payload sui.Payload `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "0xinvestor", body.Sender)
		require.Equal(t, "0xpkg::contract::accept_contract", body.Payload.Target())
		_, _ = w.Write([]byte(`{"digest":"D1"}`))
	}))
	t.Cleanup(server.Close)

	signer, err := sui.NewRemoteSigner(sui.RemoteSignerConfig{BaseURL: server.URL})
	require.NoError(t, err)

	payload := sui.Payload{MoveCall: sui.MoveCall{Package: "0xpkg", Module: "contract", Function: "accept_contract"}}
	result, err := signer.ForSender("0xinvestor").SignAndSubmit(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, "D1", result.Digest)
}

func TestRemoteSignerWaitsForSlowApproval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"digest":"SLOW"}`))
	}))
	t.Cleanup(server.Close)

	signer, err := sui.NewRemoteSigner(sui.RemoteSignerConfig{BaseURL: server.URL})
	require.NoError(t, err)

	result, err := signer.SignAndSubmit(context.Background(), sui.Payload{})
	require.NoError(t, err)
	require.Equal(t, "SLOW", result.Digest)
}

func TestRemoteSignerSurfacesRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"User rejected the request"}`))
	}))
	t.Cleanup(server.Close)

	signer, err := sui.NewRemoteSigner(sui.RemoteSignerConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = signer.SignAndSubmit(context.Background(), sui.Payload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "User rejected the request")
}

func TestAddressHelpers(t *testing.T) {
	require.True(t, sui.IsValidAddress("0x6"))
	require.True(t, sui.IsValidAddress("0xABC"))
	require.False(t, sui.IsValidAddress("abc"))
	require.False(t, sui.IsValidAddress("0xZZ"))
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000006", sui.NormalizeAddress("0x6"))
}
