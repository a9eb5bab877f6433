package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"notary/internal/config"
	"notary/internal/domain"
	"notary/internal/infra/cachemem"
	"notary/internal/infra/db"
	"notary/internal/infra/fingerprint"
	"notary/internal/infra/ledger/ledgerhttp"
	"notary/internal/infra/ledger/ledgermem"
	"notary/internal/infra/memstore"
	"notary/internal/infra/policy"
	"notary/internal/infra/ratelimit"
	"notary/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	registerUC *usecase.RegisterAsset
	verifyUC   *usecase.VerifyAsset
	assets     usecase.AssetRepository

	defaultLocation domain.Location

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool

	initErr error
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

// ServerDeps lets tests and alternate wiring inject collaborators directly.
type ServerDeps struct {
	Register    *usecase.RegisterAsset
	Verify      *usecase.VerifyAsset
	Assets      usecase.AssetRepository
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:        cfg,
		r:          r,
		registerUC: deps.Register,
		verifyUC:   deps.Verify,
		assets:     deps.Assets,
	}
	if s.assets == nil {
		if s.registerUC != nil {
			s.assets = s.registerUC.Assets
		} else if s.verifyUC != nil {
			s.assets = s.verifyUC.Assets
		}
	}
	s.defaultLocation = domain.Location{Latitude: cfg.DefaultLatitude, Longitude: cfg.DefaultLongitude}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	fingerprints := fingerprint.Computer{}

	var assets usecase.AssetRepository
	if s.store != nil && s.store.DB != nil {
		assets = db.NewAssetRepository(s.store.DB)
	} else {
		assets = memstore.New()
	}

	var ledger domain.LedgerClient
	if s.cfg.LedgerURL != "" {
		client, err := ledgerhttp.NewClient(s.cfg.LedgerURL, s.cfg.LedgerPollInterval(), nil)
		if err != nil {
			s.initErr = err
			return
		}
		ledger = client
	} else {
		log.Printf("LEDGER_URL not set; using in-process ledger.")
		ledger = ledgermem.New()
	}

	var policyEngine domain.PolicyEngine
	if s.cfg.PolicyBundlePath != "" {
		engine, err := policy.NewEngineFromPath(context.Background(), s.cfg.PolicyBundlePath)
		if err != nil {
			s.initErr = err
			return
		}
		policyEngine = engine
	}

	s.registerUC = &usecase.RegisterAsset{
		Assets:        assets,
		Ledger:        ledger,
		Fingerprints:  fingerprints,
		Policy:        policyEngine,
		SubmitTimeout: s.cfg.LedgerTimeout(),
		MaxRetries:    s.cfg.LedgerRetries,
		RetryBackoff:  s.cfg.LedgerRetryBackoff(),
	}
	s.verifyUC = &usecase.VerifyAsset{
		Assets:       assets,
		Ledger:       ledger,
		Fingerprints: fingerprints,
		Cache:        cachemem.New(),
		CacheTTL:     s.cfg.VerifyCacheTTL(),
	}
	s.assets = assets
	s.defaultLocation = domain.Location{Latitude: s.cfg.DefaultLatitude, Longitude: s.cfg.DefaultLongitude}

	s.initRateLimit(nil)
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	if s.cfg.RateLimitWindowSeconds > 0 {
		s.rateLimitWindow = time.Duration(s.cfg.RateLimitWindowSeconds) * time.Second
	}
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.Use(requestIDMiddleware())
	s.r.Use(s.rateLimitMiddleware())

	s.r.GET("/", s.handleRoot)
	s.r.GET("/health", s.handleHealth)

	s.r.POST("/upload", s.handleUpload)
	s.r.POST("/verify", s.handleVerify)
	s.r.GET("/assets", s.handleListAssets)
	s.r.GET("/assets/:asset_id", s.handleGetAsset)
	s.r.GET("/verified-assets", s.handleListVerifiedAssets)

	s.r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, failureResponse{Success: false, Message: "route not found"})
	})
}

func (s *Server) Run() error {
	if s.initErr != nil {
		return s.initErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}
