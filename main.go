// 命令行入口：
// - 解析 flags，加载 .env 与 leagues.yaml
// - 初始化日志、限速 HTTP 客户端、球员修正表与持久存储
// - 顺序同步选中的联赛，进程退出码反映是否全部成功
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"go-league-sync/internal/backup"
	"go-league-sync/internal/config"
	"go-league-sync/internal/fetch"
	"go-league-sync/internal/identity"
	"go-league-sync/internal/logx"
	"go-league-sync/internal/model"
	"go-league-sync/internal/persist"
	"go-league-sync/internal/pipeline"
	"go-league-sync/internal/store"
)

func main() {
	var (
		configPath   = flag.String("config", "leagues.yaml", "path to leagues.yaml")
		leagueKey    = flag.String("league", "all", "league key to sync, or \"all\"")
		dryRun       = flag.Bool("dry-run", false, "write local backups only, skip the durable store")
		full         = flag.Bool("full", false, "re-fetch every match detail page (ignore incremental skip)")
		existingPath = flag.String("existing", "", "pre-loaded existing data bundle (JSON) for a single league")
		fromStore    = flag.Bool("existing-from-store", false, "read existing data from the durable store instead of local backups")
		mergeName    = flag.String("merge", "prefer-new-unless-empty", "merge strategy: prefer-new-unless-empty|force-fresh|force-preserve")
		summary      = flag.Bool("summary", true, "print a summary table when done")
	)
	flag.Parse()

	// 1) 加载 .env（可选）与配置
	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	leagues, err := cfg.Select(*leagueKey)
	if err != nil {
		log.Fatalf("select league: %v", err)
	}
	merge, ok := pipeline.StrategyByName(*mergeName)
	if !ok {
		log.Fatalf("unknown merge strategy %q", *mergeName)
	}
	if *existingPath != "" && len(leagues) != 1 {
		log.Fatalf("-existing requires a single -league")
	}

	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)
	defer logx.Sync()

	// 3) 初始化限速 HTTP 客户端与批量节流
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:          cfg.Fetch.Proxy.HTTP,
		ProxyHTTPS:         cfg.Fetch.Proxy.HTTPS,
		Timeout:            cfg.Fetch.Timeout,
		MaxRetries:         cfg.Fetch.MaxRetries,
		BaseDelay:          cfg.Throttle.BaseDelay,
		RateLimitBackoff:   cfg.Fetch.RateLimitBackoff,
		ServerErrorBackoff: cfg.Fetch.ServerErrorBackoff,
		TimeoutBackoff:     cfg.Fetch.TimeoutBackoff,
		UserAgent:          cfg.Fetch.UserAgent,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}

	ctx := context.Background()

	// 4) 持久存储：dry-run 且不从存储读取既有数据时不打开
	var st *store.Store
	if !*dryRun || *fromStore {
		st, err = store.Open(ctx, cfg.Database.Type, cfg.Database.DSN)
		if err != nil {
			if *fromStore {
				log.Fatalf("open store: %v", err)
			}
			// 存储不可用只降级为仅写备份
			logx.Errorf("打开存储失败，本次只写本地备份：%v", err)
			st = nil
		} else {
			defer st.Close()
		}
	}

	// 5) 既有数据：默认读各联赛备份目录；也可来自文件或存储
	existing := map[string]*model.Bundle{}
	if *existingPath != "" {
		b, err := backup.LoadFile(*existingPath)
		if err != nil {
			log.Fatalf("load existing bundle: %v", err)
		}
		existing[leagues[0].Key] = b
	}
	if *fromStore && st != nil {
		for _, lg := range leagues {
			if existing[lg.Key] != nil {
				continue
			}
			doc, err := st.LoadSeason(ctx, lg.StoreLeague, lg.StoreSeason)
			if err != nil {
				logx.Warnf("[%s] 从存储读取既有数据失败，改用本地备份：%v", lg.Key, err)
				continue
			}
			if doc != nil {
				existing[lg.Key] = &doc.Bundle
			}
		}
	}

	var ps persist.Store
	if st != nil && !*dryRun {
		ps = st
	}
	syncer := pipeline.NewSyncer(pipeline.Deps{
		Fetcher: cl,
		NewBatch: func() pipeline.Ticker {
			return fetch.NewBatch(fetch.BatchOptions{
				Size: cfg.Throttle.BatchSize,
				Min:  cfg.Throttle.BatchPauseMin,
				Max:  cfg.Throttle.BatchPauseMax,
			})
		},
		Normalizer: identity.NewNormalizer(identity.FileLoader(cfg.Corrections)),
		Writer:     persist.NewWriter(ps, cfg.LegacyLeague, nil),
		Merge:      merge,
	})

	// 6) 顺序同步
	runner := pipeline.NewRunner(syncer, cfg.Throttle.LeaguePause, nil, nil)
	rep := runner.Run(ctx, leagues, pipeline.RunOptions{
		DryRun:      *dryRun,
		Full:        *full,
		UnknownDate: cfg.UnknownDate,
		Existing:    existing,
	})
	if *summary {
		fmt.Print(pipeline.Summary(rep))
	}
	if !rep.AllSucceeded {
		logx.Sync()
		os.Exit(1)
	}
}
