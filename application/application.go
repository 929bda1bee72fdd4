package application

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/lk2023060901/binio-go/pkg/binio"
	"github.com/lk2023060901/binio-go/pkg/binio/batch"
	"github.com/lk2023060901/binio-go/pkg/binio/observe"
	zlog "github.com/lk2023060901/binio-go/pkg/log"
	"github.com/lk2023060901/binio-go/pkg/metrics"
	zviper "github.com/lk2023060901/binio-go/pkg/util/viper"
)

const (
	defaultConfigPath = "./config.yaml"
	configPathEnv     = "BINIO_CONFIG_FILE_PATH"
)

// Application 是使用 binio 的进程的运行时容器。
// 它持有配置、日志与批量编解码协程池。
type Application struct {
	cfg     *zviper.Config
	binio   BinioConfig
	loggers map[string]*zlog.MLogger
	pool    *batch.Pool
	undo    func()
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run 是应用入口，使用 os.Args 解析配置路径。
//
// 配置文件路径优先级（后者覆盖前者）：
//  1. 默认：./config.yaml（不存在时使用默认配置）
//  2. 环境变量：BINIO_CONFIG_FILE_PATH
//  3. 命令行：--config <path> 或 --config=<path>
func (a *Application) Run() error {
	return a.RunArgs(os.Args[1:])
}

// RunArgs 与 Run 相同，但使用给定的命令行参数。
func (a *Application) RunArgs(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	a.initMaxProcs()

	if err := a.cfg.UnmarshalKey("binio", &a.binio); err != nil {
		return errors.Wrap(err, "unmarshal binio config")
	}
	if a.binio.Metrics {
		metrics.Register(prometheus.DefaultRegisterer)
	}
	a.pool = batch.NewPool(a.binio.Workers)

	zlog.Info("application started",
		zap.Bool("verify", a.binio.Verify),
		zap.Bool("metrics", a.binio.Metrics),
		zap.Uint64("maxBlobSize", a.binio.MaxBlobSize),
		zap.Int("workers", a.pool.Cap()))
	return nil
}

// Close 释放协程池并刷新日志。
func (a *Application) Close() {
	if a.pool != nil {
		a.pool.Release()
		a.pool = nil
	}
	if a.undo != nil {
		a.undo()
		a.undo = nil
	}
	_ = zlog.Sync()
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Binio 返回 binio 段配置。
func (a *Application) Binio() BinioConfig {
	return a.binio
}

// Pool 返回批量编解码使用的协程池，Run 之前为 nil。
func (a *Application) Pool() *batch.Pool {
	return a.pool
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// Wrap 按 binio 段配置为组合子附加校验与指标包装。
func Wrap[T any](a *Application, c binio.Combinator[T]) binio.Combinator[T] {
	return observe.Wrap(c, a.binio.Observe(), observe.WithLogger(a.Logger("binio")))
}

func loadConfig(args []string) (*zviper.Config, error) {
	configPath := defaultConfigPath
	explicit := false

	if envPath := strings.TrimSpace(os.Getenv(configPathEnv)); envPath != "" {
		configPath = envPath
		explicit = true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, errors.New("missing value after --config")
			}
			configPath = args[i+1]
			explicit = true
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			configPath = val
			explicit = true
		}
	}

	cfg := zviper.New()
	if !explicit {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %q", configPath)
	}
	return cfg, nil
}

// initLogging 初始化全局日志与按名称配置的模块日志。
func (a *Application) initLogging() error {
	if err := a.initGlobalLogger(); err != nil {
		return err
	}
	return a.initModuleLoggers()
}

// initGlobalLogger 使用 log 段配置全局 Logger，未配置时保留默认的标准输出 Logger。
//
//	log:
//	  level: debug
//	  format: json
//	  stdout: true
//	  file:
//	    rootpath: ./logs
//	    filename: binio.log
func (a *Application) initGlobalLogger() error {
	if !a.cfg.IsSet("log") {
		return nil
	}
	var lc zlog.Config
	if err := a.cfg.UnmarshalKey("log", &lc); err != nil {
		return errors.Wrap(err, "unmarshal log config")
	}
	logger, props, err := zlog.InitLogger(&lc)
	if err != nil {
		return errors.Wrap(err, "init global logger")
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggers 根据 logging 段创建具名 Logger。
//
//	logging:
//	  binio:
//	    level: warn
//	    stdout: true
func (a *Application) initModuleLoggers() error {
	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return errors.Wrapf(err, "init module logger %q", name)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}
	return nil
}

// initMaxProcs 按容器 CPU 配额设置 GOMAXPROCS。
func (a *Application) initMaxProcs() {
	undo, err := maxprocs.Set(maxprocs.Logger(zlog.S().Infof))
	if err != nil {
		zlog.Warn("failed to set GOMAXPROCS", zap.Error(err))
		return
	}
	a.undo = undo
}
