package models

import "time"

// TimestampLayout is the on-disk and display format of scan timestamps
const TimestampLayout = "2006-01-02 15:04:05"

// Ledger columns, in file order
const (
	ColumnUsername  = "username"
	ColumnBarcode   = "barcode"
	ColumnTimestamp = "timestamp"
)

// LedgerHeader is the first row of every ledger file and CSV export
var LedgerHeader = []string{ColumnUsername, ColumnBarcode, ColumnTimestamp}

// Ledger backends
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Domain types

// UserRecord is the value stored per username in the credential file.
// Password holds a bcrypt hash; files written by older versions may still
// carry plaintext until they are migrated.
type UserRecord struct {
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type User struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
}

type Scan struct {
	Username  string `json:"username"`
	Barcode   string `json:"barcode"`
	Timestamp string `json:"timestamp"`
}

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05-07:00",
}

// Time parses the scan timestamp in loc. Values carrying their own offset
// are converted to loc. ok is false when no known layout matches.
func (s Scan) Time(loc *time.Location) (t time.Time, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.ParseInLocation(layout, s.Timestamp, loc)
		if err == nil {
			return parsed.In(loc), true
		}
	}
	return time.Time{}, false
}

// Identity is what an authenticated session knows about its user
type Identity struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Anonymous reports whether no user is attached
func (i Identity) Anonymous() bool {
	return i.Username == ""
}

// Session is the per-request session context.
type Session struct {
	ID        string
	Identity  Identity
	ExpiresAt time.Time
}

// LoggedIn reports whether the session carries a user
func (s *Session) LoggedIn() bool {
	return s != nil && !s.Identity.Anonymous()
}

// Reset returns the session to the anonymous state
func (s *Session) Reset() {
	*s = Session{}
}

type UserInfo struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type UserCount struct {
	Username string `json:"username"`
	Count    int    `json:"count"`
}

type Summary struct {
	Total       int         `json:"total"`
	ActiveUsers int         `json:"active_users"`
	Today       int         `json:"today"`
	PerUser     []UserCount `json:"per_user"`
	Timezone    string      `json:"timezone"`
}

// Request types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Sent by the browser scanning widget once per successful decode
type WidgetScanRequest struct {
	Barcode   string `json:"barcode"`
	Timestamp string `json:"timestamp"`
}

type AddUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type RenameUserRequest struct {
	NewUsername string `json:"new_username"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// Response types

type LoginResponse struct {
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RecordScanResponse struct {
	Scan    Scan   `json:"scan"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

type ScanListResponse struct {
	Scans []Scan `json:"scans"`
	Count int    `json:"count"`
}

type AdminScanListResponse struct {
	Scans          []Scan   `json:"scans"`
	Count          int      `json:"count"`
	Filter         string   `json:"filter,omitempty"`
	UsersWithScans []string `json:"users_with_scans"`
}

type UserListResponse struct {
	Users []UserInfo `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
