package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taehoonhoonn/where-smoking/internal/backfill"
	"github.com/taehoonhoonn/where-smoking/internal/config"
	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/logger"
	"github.com/taehoonhoonn/where-smoking/pkg/kakao"
)

// 시민 제보의 좌표 임시 주소를 Kakao 역지오코딩 결과로 교체
func main() {
	dryRun := flag.Bool("dry-run", false, "실제 업데이트 없이 미리보기만 수행")
	limit := flag.Int("limit", 0, "처리할 최대 레코드 수 (0이면 전체)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	// 로거 초기화
	if err := logger.Init(logger.Options{Level: cfg.LogLevel, Development: true}); err != nil {
		panic(err)
	}
	defer logger.Sync()
	appLog := logger.GetLogger("address-backfill")

	if cfg.KakaoRESTAPIKey == "" {
		appLog.Error("KAKAO_REST_API_KEY 환경변수가 설정되지 않았습니다.")
		os.Exit(1)
	}

	// 컨텍스트 설정 (시그널 핸들링)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		appLog.Errorw("DB 연결 실패", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	runner := backfill.NewRunner(source, kakao.NewClient(cfg.KakaoRESTAPIKey, cfg.KakaoTimeout), appLog)
	runner.DryRun = *dryRun
	runner.Limit = *limit

	if *dryRun {
		appLog.Info("[DRY RUN 모드] 실제 업데이트는 수행되지 않습니다.")
	}

	stats, err := runner.Run(ctx)
	appLog.Infow("처리 결과 요약",
		"total", stats.Total,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"dry_run", *dryRun,
	)
	if err != nil {
		appLog.Errorw("백필 중단", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

// openSource STORE_DRIVER에 맞는 백필 소스 선택
func openSource(ctx context.Context, cfg *config.Config) (backfill.Source, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		src, err := backfill.NewPgSource(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	case "mongo":
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, logger.GetLogger("mongo"))
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return backfill.NewMongoSource(db), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
