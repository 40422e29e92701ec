// Package wire is the gRPC contract of the Mock Backend. Requests and
// responses travel as google.protobuf.Struct values shaped like the
// backend's untyped records, so no generated code is needed.
package wire

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "insightpulse.backend.Backend"

const (
	MethodPing        = "Ping"
	MethodLookupUsers = "LookupUsers"
	MethodCreateUser  = "CreateUser"
	MethodUpdateUser  = "UpdateUser"
	MethodDeleteUser  = "DeleteUser"
	MethodSendEmail   = "SendEmail"
	MethodRecordLogin = "RecordLogin"
	MethodListLogins  = "ListLogins"
)

// FullMethod returns the gRPC path of a method, e.g.
// "/insightpulse.backend.Backend/LookupUsers".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Encode converts v to a Struct through its JSON form.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// Decode fills v from s. A nil Struct leaves v untouched.
func Decode(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Record is the wire form of models.UserRecord.
type Record struct {
	ID               int64       `json:"ID"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	Role             models.Role `json:"role"`
	Avatar           string      `json:"avatar,omitempty"`
	PasswordSalt     []byte      `json:"password_salt,omitempty"`
	PasswordVerifier []byte      `json:"password_verifier,omitempty"`
	VerificationCode string      `json:"verification_code,omitempty"`
	ResetCode        string      `json:"reset_code,omitempty"`
	Verified         bool        `json:"is_verified"`
	CreatedAt        time.Time   `json:"created_at"`
}

func FromRecord(r models.UserRecord) Record {
	return Record{
		ID:               r.ID,
		Email:            r.Email,
		Name:             r.Name,
		Role:             r.Role,
		Avatar:           r.Avatar,
		PasswordSalt:     r.PasswordSalt,
		PasswordVerifier: r.PasswordVerifier,
		VerificationCode: r.VerificationCode,
		ResetCode:        r.ResetCode,
		Verified:         r.Verified,
		CreatedAt:        r.CreatedAt,
	}
}

func (r Record) ToModel() models.UserRecord {
	return models.UserRecord{
		ID:               r.ID,
		Email:            r.Email,
		Name:             r.Name,
		Role:             r.Role,
		Avatar:           r.Avatar,
		PasswordSalt:     r.PasswordSalt,
		PasswordVerifier: r.PasswordVerifier,
		VerificationCode: r.VerificationCode,
		ResetCode:        r.ResetCode,
		Verified:         r.Verified,
		CreatedAt:        r.CreatedAt,
	}
}

// Patch is the wire form of models.UserPatch; absent keys are unchanged.
type Patch struct {
	Email            *string      `json:"email,omitempty"`
	Name             *string      `json:"name,omitempty"`
	Role             *models.Role `json:"role,omitempty"`
	Avatar           *string      `json:"avatar,omitempty"`
	PasswordSalt     []byte       `json:"password_salt,omitempty"`
	PasswordVerifier []byte       `json:"password_verifier,omitempty"`
	VerificationCode *string      `json:"verification_code,omitempty"`
	ResetCode        *string      `json:"reset_code,omitempty"`
	Verified         *bool        `json:"is_verified,omitempty"`
}

func FromPatch(p models.UserPatch) Patch {
	return Patch(p)
}

func (p Patch) ToModel() models.UserPatch {
	return models.UserPatch(p)
}

type LookupResponse struct {
	List  []Record `json:"List"`
	Total int      `json:"VirtualCount"`
}

type UpdateRequest struct {
	ID    int64 `json:"ID"`
	Patch Patch `json:"patch"`
}

type DeleteRequest struct {
	ID int64 `json:"ID"`
}

type ListLoginsRequest struct {
	Limit int `json:"limit"`
}

type ListLoginsResponse struct {
	Logs []models.LoginLog `json:"logs"`
}

type PingResponse struct {
	Status string `json:"status"`
}
