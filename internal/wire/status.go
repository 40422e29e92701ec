package wire

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var sentinels = []struct {
	err  error
	code codes.Code
}{
	{common.ErrDuplicateEmail, codes.AlreadyExists},
	{common.ErrNotFound, codes.NotFound},
	{common.ErrInvalidFilter, codes.InvalidArgument},
	{common.ErrBackendUnavailable, codes.Unavailable},
}

// ToStatus turns a backend error into a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return status.Error(s.code, err.Error())
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// FromStatus maps a gRPC status error back onto the sentinel errors.
// Errors without a status pass through unchanged.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	for _, s := range sentinels {
		if st.Code() == s.code {
			return s.err
		}
	}
	return errors.New(st.Message())
}
