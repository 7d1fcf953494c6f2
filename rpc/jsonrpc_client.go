package rpc

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/ava-labs/crank/x/programs/program"
	"github.com/ava-labs/crank/x/programs/runtime"
)

type JSONRPCClient struct {
	uri    string
	client *http.Client
}

// NewJSONRPCClient returns a client for the server at [uri], the base URL
// the server's handler is mounted at.
func NewJSONRPCClient(uri string) *JSONRPCClient {
	return &JSONRPCClient{
		uri:    strings.TrimSuffix(uri, "/") + JSONRPCEndpoint,
		client: http.DefaultClient,
	}
}

func (c *JSONRPCClient) call(ctx context.Context, method string, args any, reply any) error {
	body, err := json2.EncodeClientRequest(Name+"."+method, args)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json2.DecodeClientResponse(resp.Body, reply)
}

func (c *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := c.call(ctx, "Ping", nil, resp)
	return resp.Success, err
}

func (c *JSONRPCClient) Health(ctx context.Context) (bool, error) {
	resp := new(HealthReply)
	err := c.call(ctx, "Health", nil, resp)
	return resp.Healthy, err
}

func (c *JSONRPCClient) Version(ctx context.Context) (string, string, error) {
	resp := new(VersionReply)
	err := c.call(ctx, "Version", nil, resp)
	return resp.Name, resp.Version, err
}

func (c *JSONRPCClient) Programs(ctx context.Context) ([]ProgramInfo, error) {
	resp := new(ProgramsReply)
	err := c.call(ctx, "Programs", nil, resp)
	return resp.Programs, err
}

func (c *JSONRPCClient) IDL(ctx context.Context, programID string) (*program.IDL, error) {
	resp := new(IDLReply)
	err := c.call(ctx, "IDL", &ProgramArgs{ProgramID: programID}, resp)
	return resp.IDL, err
}

func (c *JSONRPCClient) SendTransaction(ctx context.Context, tx *runtime.Transaction) (*runtime.Receipt, error) {
	resp := new(ReceiptReply)
	err := c.call(ctx, "SendTransaction", NewSendTransactionArgs(tx), resp)
	return resp.Receipt, err
}

func (c *JSONRPCClient) SimulateInitialize(ctx context.Context, programID string) (*runtime.Receipt, error) {
	resp := new(ReceiptReply)
	err := c.call(ctx, "SimulateInitialize", &ProgramArgs{ProgramID: programID}, resp)
	return resp.Receipt, err
}

func (c *JSONRPCClient) GetReceipt(ctx context.Context, id string) (*runtime.Receipt, error) {
	resp := new(ReceiptReply)
	err := c.call(ctx, "GetReceipt", &ReceiptArgs{ID: id}, resp)
	return resp.Receipt, err
}
