package deps

import (
	"time"

	"github.com/tofixx/mymovieflip/internal/logger"
	"github.com/tofixx/mymovieflip/internal/session"
	"github.com/tofixx/mymovieflip/internal/store"
)

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time // for testing, defaults to time.Now
	AllowedHosts   []string         // Host headers allowed to access the server
	AllowedCIDRS   []string         // IPs allowed to access readyz, reload and metrics
	TrustProxy     bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins    []string         // browser origins allowed to call /api
	APIRateLimit   int              // requests per client IP per APIRateWindow, 0 disables
	APIRateWindow  time.Duration
	MetricsEnabled bool
	Session        *session.Session // the single local user's session
	Store          store.Store      // persistence backend, pinged by readyz
	StoreBackend   string           // backend name reported by readyz
	ReloadTrigger  chan struct{}    // Channel to trigger a manual genre reload
}
