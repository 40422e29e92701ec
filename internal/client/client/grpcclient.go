package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultCallTimeout bounds a call whose context has no deadline.
const DefaultCallTimeout = 10 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	callTimeout time.Duration
}

// NewGRPCClient dials endpointURL lazily; the first call opens the connection.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, callTimeout: DefaultCallTimeout}

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	opts = append(opts, grpc.WithUnaryInterceptor(c.errorInterceptor))

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// errorInterceptor applies the default timeout and translates status errors.
func (c *GRPCClient) errorInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, ok := ctx.Deadline(); !ok && c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unavailable {
		return common.ErrBackendUnavailable
	}
	return wire.FromStatus(err)
}

func (c *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	in, err := wire.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, wire.FullMethod(method), in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return wire.Decode(out, resp)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	var resp wire.PingResponse
	if err := c.call(ctx, wire.MethodPing, struct{}{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return common.ErrBackendUnavailable
	}
	return nil
}

func (c *GRPCClient) LookupUsers(ctx context.Context, q models.Query) (models.UserPage, error) {
	var resp wire.LookupResponse
	if err := c.call(ctx, wire.MethodLookupUsers, q, &resp); err != nil {
		return models.UserPage{}, err
	}

	page := models.UserPage{Records: make([]models.UserRecord, 0, len(resp.List)), Total: resp.Total}
	for _, r := range resp.List {
		page.Records = append(page.Records, r.ToModel())
	}
	return page, nil
}

func (c *GRPCClient) CreateUser(ctx context.Context, rec models.UserRecord) (models.UserRecord, error) {
	var resp wire.Record
	if err := c.call(ctx, wire.MethodCreateUser, wire.FromRecord(rec), &resp); err != nil {
		return models.UserRecord{}, err
	}
	return resp.ToModel(), nil
}

func (c *GRPCClient) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.UserRecord, error) {
	var resp wire.Record
	req := wire.UpdateRequest{ID: id, Patch: wire.FromPatch(patch)}
	if err := c.call(ctx, wire.MethodUpdateUser, req, &resp); err != nil {
		return models.UserRecord{}, err
	}
	return resp.ToModel(), nil
}

func (c *GRPCClient) DeleteUser(ctx context.Context, id int64) error {
	return c.call(ctx, wire.MethodDeleteUser, wire.DeleteRequest{ID: id}, nil)
}

func (c *GRPCClient) SendEmail(ctx context.Context, email models.Email) error {
	return c.call(ctx, wire.MethodSendEmail, email, nil)
}

func (c *GRPCClient) RecordLogin(ctx context.Context, log models.LoginLog) error {
	return c.call(ctx, wire.MethodRecordLogin, log, nil)
}

func (c *GRPCClient) ListLogins(ctx context.Context, limit int) ([]models.LoginLog, error) {
	var resp wire.ListLoginsResponse
	if err := c.call(ctx, wire.MethodListLogins, wire.ListLoginsRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	if resp.Logs == nil {
		resp.Logs = []models.LoginLog{}
	}
	return resp.Logs, nil
}
