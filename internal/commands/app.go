package commands

import (
	"context"
	"io"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
	"github.com/joseph-ayodele/docs-extractor/internal/extract"
	"github.com/joseph-ayodele/docs-extractor/internal/llm"
	"github.com/joseph-ayodele/docs-extractor/internal/llm/bedrock"
	"github.com/joseph-ayodele/docs-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/docs-extractor/internal/ocr"
	"github.com/joseph-ayodele/docs-extractor/internal/pipeline"
	"github.com/joseph-ayodele/docs-extractor/internal/repository"
	"github.com/joseph-ayodele/docs-extractor/internal/storage"
)

// app holds what the startup routine produced. Every command builds one,
// uses it and closes it.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
	db     *repository.DB
	docs   repository.DocumentRepository
}

// loadConfig layers the persistent flags over common.LoadConfig and validates the result.
func loadConfig(opts *rootOptions) (*common.Config, error) {
	cfg, err := common.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbURL != "" {
		cfg.Database.URL = opts.dbURL
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg common.LogConfig) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startApp runs the startup routine once: load config, open the database,
// create the schema and the upload directory.
func startApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(logOut, cfg.Log)
	slog.SetDefault(logger)

	db, err := repository.Open(ctx, repository.Config{
		URL:              cfg.Database.URL,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Storage.S3Bucket == "" {
		if err := storage.NewLocalStore(cfg.Storage.UploadDir, logger).EnsureDir(); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		docs:   repository.NewDocumentRepository(db, logger),
	}, nil
}

func (a *app) Close() { a.db.Close() }

// processor wires the text source, the model client, the router and the
// upload store named by the configuration.
func (a *app) processor(ctx context.Context) (*pipeline.Processor, error) {
	completer, err := a.completer(ctx)
	if err != nil {
		return nil, err
	}
	router := extract.NewDefaultRouter(completer, extract.Options{
		MaxPromptTokens: a.cfg.LLM.MaxPromptTokens,
		Encoding:        llm.DefaultEncoding,
	}, a.logger)

	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewProcessor(a.textSource(), router, a.docs, store, a.logger), nil
}

func (a *app) textSource() *ocr.Extractor {
	c := a.cfg.OCR
	var opts []ocr.Option
	if strings.EqualFold(c.Backend, "azure") {
		opts = append(opts, ocr.WithRecognizer(ocr.NewAzureRecognizer(c.AzureEndpoint, c.AzureKey, a.logger)))
	}
	return ocr.NewExtractor(ocr.Config{
		Tesseract:     c.TesseractCmd,
		PopplerPath:   c.PopplerPath,
		TesseractLang: c.Lang,
		TessdataDir:   c.TessdataDir,
		PSM:           c.PSM,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		EnhanceImages: c.EnhanceImages,
	}, a.logger, opts...)
}

func (a *app) completer(ctx context.Context) (llm.Completer, error) {
	c := a.cfg.LLM
	switch strings.ToLower(c.Provider) {
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWSRegion))
		if err != nil {
			return nil, common.ServiceUnavailableError("load aws config", err)
		}
		return bedrock.NewClient(bedrockruntime.NewFromConfig(awsCfg), bedrock.Config{
			ModelID:     c.BedrockModelID,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
		}, a.logger), nil
	default:
		return openai.NewClient(openai.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     c.Timeout,
		}, a.logger), nil
	}
}

func (a *app) store(ctx context.Context) (storage.Store, error) {
	c := a.cfg.Storage
	if c.S3Bucket == "" {
		return storage.NewLocalStore(c.UploadDir, a.logger), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.cfg.LLM.AWSRegion))
	if err != nil {
		return nil, common.PersistenceError("load aws config", err)
	}
	return storage.NewS3Store(s3.NewFromConfig(awsCfg), c.S3Bucket, c.S3Prefix, a.logger), nil
}
