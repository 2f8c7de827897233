package app

import (
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahilchouksey/gaokao-ingest/config"
	"github.com/sahilchouksey/gaokao-ingest/database"
	"github.com/sahilchouksey/gaokao-ingest/services/export"
	"github.com/sahilchouksey/gaokao-ingest/services/pipeline"
	"github.com/sahilchouksey/gaokao-ingest/services/sources"
	"github.com/sahilchouksey/gaokao-ingest/utils"
	"github.com/sahilchouksey/gaokao-ingest/utils/cache"
)

// Runtime holds what a command needs, opened lazily and closed once.
type Runtime struct {
	Env     *config.EnvironmentVariable
	Catalog sources.Catalog

	store   *database.GORMStore
	sink    *cache.FailureStore
	closers []io.Closer
}

// Setup loads the environment, logging and the source catalog.
func Setup() (*Runtime, error) {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return nil, err
	}

	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Env: getEnv}

	logFile, err := utils.SetupLogger(getEnv.LOG_LEVEL, getEnv.LOG_FILE)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, logFile)

	catalog, err := sources.Load(getEnv.SOURCES_FILE)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	rt.Catalog = catalog

	return rt, nil
}

// Database opens and migrates the database on first use.
func (rt *Runtime) Database() (*database.GORMStore, error) {
	if rt.store != nil {
		return rt.store, nil
	}

	store, err := database.StartGORM()
	if err != nil {
		print("Check DATABASE_URL, or unset it to use the local SQLite file\n")
		return nil, err
	}
	if err := store.Init(); err != nil {
		_ = store.Close()
		print("Failed to initialize database tables\n")
		return nil, err
	}

	rt.store = store
	return store, nil
}

// FailureSink connects to redis when REDIS_URL is set. A sink that cannot
// connect is skipped with a warning.
func (rt *Runtime) FailureSink() *cache.FailureStore {
	if rt.sink != nil || rt.Env.REDIS_URL == "" {
		return rt.sink
	}
	sink, err := cache.NewFailureStore(rt.Env.REDIS_URL)
	if err != nil {
		log.Warnf("[SETUP] failure sink disabled: %v", err)
		return nil
	}
	rt.sink = sink
	rt.closers = append(rt.closers, sink)
	return sink
}

// Pipeline builds a pipeline; withDB attaches the database for import and
// run logging.
func (rt *Runtime) Pipeline(withDB bool) (*pipeline.Pipeline, error) {
	var opts []pipeline.Option
	if withDB {
		store, err := rt.Database()
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithDatabase(store.GetDB()))
	}
	if sink := rt.FailureSink(); sink != nil {
		opts = append(opts, pipeline.WithFailureSink(sink))
	}

	return pipeline.New(rt.Catalog, rt.Settings(), opts...), nil
}

// Settings are the pipeline defaults taken from the environment.
func (rt *Runtime) Settings() pipeline.Settings {
	return pipeline.Settings{
		Root:                rt.Env.DATA_DIR,
		ChunkSize:           rt.Env.CHUNK_SIZE,
		MaxRetries:          rt.Env.MAX_RETRIES,
		Timeout:             time.Duration(rt.Env.REQUEST_TIMEOUT_SECONDS) * time.Second,
		Delay:               time.Duration(rt.Env.REQUEST_DELAY_MS) * time.Millisecond,
		ValidateCheckpoints: rt.Env.VALIDATE_CHECKPOINTS,
	}
}

// Storage returns the export bucket configuration.
func (rt *Runtime) Storage() export.StorageConfig {
	return export.StorageConfig{
		AccessKey: rt.Env.EXPORT_ACCESS_KEY,
		SecretKey: rt.Env.EXPORT_SECRET_KEY,
		Bucket:    rt.Env.EXPORT_BUCKET,
		Region:    rt.Env.EXPORT_REGION,
		Endpoint:  rt.Env.EXPORT_ENDPOINT,
	}
}

// Close releases everything opened by the runtime.
func (rt *Runtime) Close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			log.Warnf("[SETUP] closing database: %v", err)
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
}
