package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	once     bool
	dryRun   bool
	symbols  []string
)

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "A 股行情快照采集服务",
	Long: `A 股行情快照采集服务

按固定间隔从东方财富拉取实时行情、主要指数与个股资金流向，
写入 Supabase (PostgREST)，可选镜像到 Redis、InfluxDB 与 Postgres。

环境变量:
    SUPABASE_URL               Supabase 项目地址
    SUPABASE_SERVICE_ROLE_KEY  服务端密钥（必填）
    COLLECT_INTERVAL           采集间隔，单位秒（默认 60）
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env 不存在时直接使用环境变量
		_ = godotenv.Load()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), runOptions{
			configPath: cfgFile,
			logLevel:   logLevel,
			once:       once,
			dryRun:     dryRun,
			symbols:    symbols,
		})
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认查找 ./config/collector.yaml 与 ./collector.yaml)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)，覆盖配置")
	rootCmd.Flags().BoolVar(&once, "once", false, "只执行一个采集周期后退出")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "不写入 Supabase 与镜像，记录仅保存在内存中")
	rootCmd.Flags().StringSliceVar(&symbols, "symbols", nil, "指定采集的股票代码，替代从 Supabase 读取的列表")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
