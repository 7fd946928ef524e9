// ZhiPai 智能排班求解服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhipai/zhipai/internal/config"
	"github.com/zhipai/zhipai/internal/constraints"
	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/internal/handler"
	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/internal/middleware"
	"github.com/zhipai/zhipai/internal/repository"
	"github.com/zhipai/zhipai/internal/security"
	"github.com/zhipai/zhipai/internal/tenant"
	"github.com/zhipai/zhipai/pkg/affinity"
	"github.com/zhipai/zhipai/pkg/demand"
	"github.com/zhipai/zhipai/pkg/engine"
	"github.com/zhipai/zhipai/pkg/job"
	"github.com/zhipai/zhipai/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: logFormat(cfg),
	})

	fmt.Printf("ZhiPai 排班求解引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 数据库可选：连接失败时降级为内存存储，求解功能不受影响
	var (
		jobStore job.Store
		flag     job.RunningFlag
		weights  affinity.WeightsStore
		profiles handler.ProfileResolver
	)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，使用内存任务存储")
		jobStore = job.NewMemoryStore()
		flag = job.NewMemoryFlag()
		profiles = constraints.NewMemoryProfiles()
	} else {
		defer db.Close()
		jobStore = repository.NewJobRepository(db)
		flag = repository.NewRunningFlagRepository(db)
		weights = repository.NewWeightsRepository(db)
		profiles = repository.NewProfileRepository(db)

		go reportDBStats(ctx, db)
	}

	var oracle demand.Oracle
	if cfg.Oracle.Enabled && cfg.Oracle.BaseURL != "" {
		oracle = demand.NewHTTPOracle(cfg.Oracle.BaseURL, cfg.Oracle.Timeout)
		logger.Info().Str("base_url", cfg.Oracle.BaseURL).Msg("需求预测服务已启用")
	}

	scheduleHandler := handler.NewScheduleHandler(ctx, handler.ScheduleHandlerConfig{
		SolverCfg: engine.SolverConfig{
			Workers: cfg.Solver.Workers,
			Budget:  cfg.Solver.BaseBudget,
		},
		ExtendedBudget:  cfg.Solver.ExtendedBudget,
		LargeShifts:     cfg.Solver.LargeShifts,
		MaxPairProduct:  cfg.Solver.MaxPairProduct,
		Weights:         weights,
		RefreshInterval: cfg.Affinity.RefreshInterval,
		Profiles:        profiles,
		Oracle:          oracle,
		JobStore:        jobStore,
		RunningFlag:     flag,
	})
	jobHandler := handler.NewJobHandler(scheduleHandler.Controller())
	statsHandler := handler.NewStatsHandler(scheduleHandler)
	validateHandler := handler.NewValidateHandler(profiles)

	mux := http.NewServeMux()

	// 系统端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			hctx, hcancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer hcancel()
			if herr := db.Health(hctx); herr != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"status":"degraded","service":"zhipai","database":"down"}`)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"zhipai"}`))
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// API v1
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "ZhiPai 排班求解引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"validate": "POST /api/v1/schedule/validate"
				},
				"jobs": {
					"get": "GET /api/v1/jobs/{id}"
				},
				"stats": {
					"analyze": "POST /api/v1/stats/analyze"
				},
				"affinity": {
					"stats": "GET /api/v1/affinity/stats"
				}
			}
		}`))
	})

	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedule/validate", validateHandler.Validate)
	mux.HandleFunc("/api/v1/jobs/", jobHandler.Get)
	mux.HandleFunc("/api/v1/stats/analyze", statsHandler.Analyze)
	mux.HandleFunc("/api/v1/affinity/stats", statsHandler.ModelStats)

	// 中间件链：requestID → recovery → 安全头 → CORS → 认证 → 日志
	chain := http.Handler(mux)
	chain = middleware.Logging(chain)
	if cfg.Security.AuthEnabled {
		envs := tenant.NewManager(cfg.Security.Environments == "")
		if n := envs.LoadFromSpec(cfg.Security.Environments); n > 0 {
			logger.Info().Int("count", n).Msg("租户环境清单已加载")
		}
		keys := security.NewAPIKeyManager()
		if n := keys.LoadFromSpec(cfg.Security.APIKeys); n > 0 {
			logger.Info().Int("count", n).Msg("静态API密钥已加载")
		}
		chain = middleware.Auth(&middleware.AuthConfig{
			APIKeys:         keys,
			Environments:    envs,
			RateLimiter:     security.NewRateLimiter(cfg.API.RateLimit, time.Minute),
			SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
			EnableRateLimit: cfg.API.RateLimit > 0,
		})(chain)
	}
	if cfg.API.CORS.Enabled {
		chain = middleware.CORS(chain)
	}
	chain = middleware.SecurityHeaders(chain)
	chain = middleware.Recovery(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      chain,
		ReadTimeout:  cfg.API.Timeout,
		WriteTimeout: 2 * cfg.Solver.ExtendedBudget, // 同步求解必须能在响应超时内完成
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("服务启动")
		if serr := server.ListenAndServe(); serr != nil && serr != http.ErrServerClosed {
			logger.Error().Err(serr).Msg("服务异常退出")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("收到退出信号，开始优雅关闭")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		logger.Error().Err(serr).Msg("优雅关闭失败")
	}
	logger.Info().Msg("服务已退出")
}

// logFormat 生产环境输出JSON日志，其余环境输出着色控制台日志
func logFormat(cfg *config.Config) string {
	if cfg.IsProduction() {
		return "json"
	}
	return "console"
}

// reportDBStats 周期性上报连接池指标
func reportDBStats(ctx context.Context, db *database.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := db.Stats()
			metrics.SetDBConnections(s.OpenConnections, s.Idle)
		}
	}
}
