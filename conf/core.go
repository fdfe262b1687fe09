// Package conf wires the application together: config files under
// config/, environment-sourced platform credentials, backing clients,
// and the managed service set.
package conf

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/libresign/libresign/cleanup"
	"github.com/libresign/libresign/db/kvdb"
	"github.com/libresign/libresign/db/kvdb/impls/redis"
	"github.com/libresign/libresign/db/sqldb"
	"github.com/libresign/libresign/db/sqldb/impls/pgsql"
	"github.com/libresign/libresign/platform"
	"github.com/libresign/libresign/schedjobs"
	"github.com/libresign/libresign/sec"
	"github.com/libresign/libresign/storage"
	"github.com/libresign/libresign/svc"
	"github.com/libresign/libresign/throttle"
	"github.com/libresign/libresign/tpl"
	"github.com/libresign/libresign/web"
	"github.com/libresign/libresign/web/session"
)

// Environment variables carrying platform credentials. Secrets never live
// in config files.
const (
	EnvPlatformURL        = "LIBRESIGN_PLATFORM_URL"
	EnvPlatformAnonKey    = "LIBRESIGN_PLATFORM_ANON_KEY"
	EnvPlatformServiceKey = "LIBRESIGN_PLATFORM_SERVICE_KEY"
	EnvPlatformJWTSecret  = "LIBRESIGN_PLATFORM_JWT_SECRET"
)

type DebugOpts struct {
	EchoAPI bool `json:"echo_api"` // registers the request-echo debug endpoint
}

// Core - common config
type Core struct {
	AppName             string                 `json:"app_name"`
	Listen              string                 `json:"listen"`     // HTTP Server Listen IP:PORT Address
	Host                string                 `json:"host"`       // HTTP Host. Can be used to generate public url endpoints
	DebugOpts           DebugOpts              `json:"debug_opts"` // Debug Options
	AppRoot             string                 `json:"-"`          // Filled from compiled paths
	RootCtx             context.Context        `json:"-"`          // Global Context with RootCancel
	RootCancel          context.CancelFunc     `json:"-"`          // CancelFunc for RootCtx
	JobScheduler        *schedjobs.Scheduler   `json:"-"`          // PrepareJobScheduler
	WebService          *web.Service           `json:"-"`          // PrepareWebService
	ThrottleBucketStore *throttle.BucketStore  `json:"-"`          // PrepareThrottleBucketStore
	VolatileKV          *sync.Map              `json:"-"`          // map[string]string
	SessionLocks        *sync.Map              `json:"-"`          // map[string]*sync.Mutex for WebSessions
	ActionLocks         *sync.Map              `json:"-"`          // map[string]struct{}
	BackendHttpClient   *http.Client           `json:"-"`          // for requests to the platform APIs
	KVDBConf            kvdb.Conf              `json:"-"`          // loadKVDBConf
	BackendKVDBClient   kvdb.Client            `json:"-"`          // prepareKVDBClient
	SQLDBConfs          map[string]*sqldb.Conf `json:"-"`          // loadSQLDBConfs
	BackendSQLDBClients map[string]sqldb.Client `json:"-"`         // prepareSQLDBClients
	PlatformClient      *platform.Client       `json:"-"`          // PreparePlatform
	StorageClient       *storage.Client        `json:"-"`          // PrepareStorage
	CleanupQueue        *cleanup.Queue         `json:"-"`          // PrepareCleanupQueue
	WebSessionManager   *session.Manager       `json:"-"`          // PrepareWebSessions
	HTMLTemplateStore   *tpl.HTMLTemplateStore `json:"-"`          // PrepareHTMLTemplateStore

	services []svc.Service // Services to Manage
	done     chan error
}

// BaseInit - 1st step for initialization
// 1. set AppRoot
// 2. load config/.core.json file
// 3. prepare base fields
// 4. Start ShutdownSignalListener
func (c *Core) BaseInit(appRoot string, rootCtx context.Context, rootCancel context.CancelFunc) error {
	c.AppRoot = appRoot
	envFilePath := filepath.Join(appRoot, "config", ".core.json")
	envBytes, err := os.ReadFile(envFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(envBytes, c); err != nil {
		return err
	}
	c.RootCtx = rootCtx
	c.RootCancel = rootCancel
	c.prepareDefaultFeatures()
	c.startShutdownSignalListener()
	return nil
}

func (c *Core) prepareDefaultFeatures() {
	c.VolatileKV = &sync.Map{}
	c.SessionLocks = &sync.Map{}
	c.BackendHttpClient = &http.Client{Timeout: 30 * time.Second}
	c.ActionLocks = &sync.Map{}
}

func (c *Core) AddService(s svc.Service) {
	log.Printf("[INFO] adding service: %s", s.Name())
	c.services = append(c.services, s)
	log.Printf("[INFO] total services: %d", len(c.services))
}

func (c *Core) StartServices() error {
	c.done = make(chan error, len(c.services))
	for _, s := range c.services {
		err := s.Start()
		if err != nil {
			return err
		}
		go func(s svc.Service) {
			err := <-s.Done()
			c.done <- err
		}(s)
	}
	return nil
}

func (c *Core) WaitServicesDone() error {
	for i := 0; i < len(c.services); i++ {
		if err := <-c.done; err != nil {
			return err
		}
	}
	return nil
}

func (c *Core) StopServices() {
	for _, s := range c.services {
		s.Stop()
	}
}

var once sync.Once

func (c *Core) startShutdownSignalListener() {
	once.Do(func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigs
			log.Printf("[INFO] got signal [%s]. shutting down app [%s] ...", sig, c.AppName)
			c.RootCancel() // broadcast to all child services via Context.Done()
		}()
	})
	log.Printf("[INFO][CORE] shutdown signal listener started")
}

func (c *Core) PrepareJobScheduler() {
	c.JobScheduler = schedjobs.NewScheduler(c.RootCtx)
	c.AddService(c.JobScheduler)
}

func (c *Core) PrepareWebService(addr string, router http.Handler) {
	c.WebService = web.NewService(c.RootCtx, addr, router)
	c.AddService(c.WebService)
}

func (c *Core) PrepareThrottleBucketStore(cleanupCycle time.Duration, cleanupOlderThan time.Duration) error {
	c.ThrottleBucketStore = throttle.NewBucketStore(c.RootCtx, cleanupCycle, cleanupOlderThan)
	if err := c.loadThrottleGroups(); err != nil {
		return err
	}
	c.AddService(c.ThrottleBucketStore)
	return nil
}

type throttleGroupConf struct {
	Burst         int `json:"burst"`
	Increment     int `json:"increment"`
	PeriodSeconds int `json:"period_seconds"`
}

func (c *Core) loadThrottleGroups() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".throttle.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	groupConfs := make(map[string]throttleGroupConf)
	if err = json.Unmarshal(confBytes, &groupConfs); err != nil {
		return err
	}
	for groupID, gc := range groupConfs {
		c.ThrottleBucketStore.SetBucketGroup(groupID, &throttle.BucketConf{
			Burst:     gc.Burst,
			Increment: gc.Increment,
			Period:    time.Duration(gc.PeriodSeconds) * time.Second,
		})
		log.Printf("[INFO][Throttle] group %q burst=%d +%d/%ds", groupID, gc.Burst, gc.Increment, gc.PeriodSeconds)
	}
	return nil
}

func (c *Core) PrepareKVDatabase() error {
	// Load KV Database Config File
	err := c.loadKVDBConf()
	if err != nil {
		return err
	}
	if err = c.prepareKVDBClient(); err != nil {
		return err
	}
	return nil
}

func (c *Core) loadKVDBConf() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".kv-databases.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(confBytes, &c.KVDBConf); err != nil {
		return err
	}
	return nil
}

func (c *Core) prepareKVDBClient() error {
	switch c.KVDBConf.Type {
	case "redis":
		c.BackendKVDBClient = &redis.Client{Conf: &c.KVDBConf}
		if err := c.BackendKVDBClient.Init(); err != nil {
			return err
		}
	// case "memcached"
	default:
		return errors.New("unsupported key-value database type")
	}
	return nil
}

func (c *Core) loadSQLDBConfs() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".sql-databases.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	c.SQLDBConfs = make(map[string]*sqldb.Conf)
	if err = json.Unmarshal(confBytes, &c.SQLDBConfs); err != nil {
		return err
	}
	return nil
}

// PrepareSQLDatabases for SQL DB Clients
func (c *Core) PrepareSQLDatabases() error {
	// Load SQL Databases Config File
	err := c.loadSQLDBConfs()
	if err != nil {
		return err
	}
	c.BackendSQLDBClients = make(map[string]sqldb.Client)

	// Registering Supported Implementations
	pgsql.Register()

	// Prepare New Clients
	for dbName, sqlDBConf := range c.SQLDBConfs {
		dbClient, err := sqldb.New(sqlDBConf.Type, sqlDBConf)
		if err != nil {
			return err
		}
		if err = dbClient.Init(); err != nil {
			return err
		}
		c.BackendSQLDBClients[dbName] = dbClient
	}
	return nil
}

// MainSQLDBClient returns the "main" database client.
func (c *Core) MainSQLDBClient() (sqldb.Client, error) {
	dbClient, ok := c.BackendSQLDBClients["main"]
	if !ok {
		return nil, errors.New(`no "main" SQL database configured`)
	}
	return dbClient, nil
}

// PreparePlatform builds the platform auth client. The host and endpoints
// may come from config/.platform.json; credentials come from the
// environment only and missing ones are a hard error.
// Prerequisite: BackendHttpClient
func (c *Core) PreparePlatform() error {
	if c.BackendHttpClient == nil {
		return errors.New("backend http client not ready")
	}
	pconf := &platform.Conf{}
	confFilePath := filepath.Join(c.AppRoot, "config", ".platform.json")
	if confBytes, err := os.ReadFile(confFilePath); err == nil {
		if err = json.Unmarshal(confBytes, pconf); err != nil {
			return err
		}
	}
	if host := os.Getenv(EnvPlatformURL); host != "" {
		pconf.Host = host
	}
	if pconf.Host == "" {
		return fmt.Errorf("%s not set and no host in config", EnvPlatformURL)
	}
	pconf.AnonKey = os.Getenv(EnvPlatformAnonKey)
	if pconf.AnonKey == "" {
		return fmt.Errorf("%s not set", EnvPlatformAnonKey)
	}
	pconf.ServiceKey = os.Getenv(EnvPlatformServiceKey)
	if pconf.ServiceKey == "" {
		return fmt.Errorf("%s not set", EnvPlatformServiceKey)
	}
	pconf.JWTSecret = os.Getenv(EnvPlatformJWTSecret)
	if pconf.JWTSecret == "" {
		return fmt.Errorf("%s not set", EnvPlatformJWTSecret)
	}
	pconf.ApplyDefaults()
	c.PlatformClient = &platform.Client{
		Client: c.BackendHttpClient,
		Conf:   pconf,
	}
	return nil
}

// PrepareStorage builds the blob storage client and provisions the
// application buckets. Prerequisite: PreparePlatform
func (c *Core) PrepareStorage() error {
	if c.PlatformClient == nil {
		return errors.New("platform client not ready")
	}
	sconf := &storage.Conf{}
	confFilePath := filepath.Join(c.AppRoot, "config", ".storages.json")
	if confBytes, err := os.ReadFile(confFilePath); err == nil {
		if err = json.Unmarshal(confBytes, sconf); err != nil {
			return err
		}
	}
	if sconf.Host == "" {
		sconf.Host = c.PlatformClient.Conf.Host
	}
	sconf.ServiceKey = c.PlatformClient.Conf.ServiceKey
	c.StorageClient = &storage.Client{
		Client: c.BackendHttpClient,
		Conf:   sconf,
	}
	c.StorageClient.EnsureBuckets(c.RootCtx)
	return nil
}

// PrepareCleanupQueue wires the orphaned-blob queue and registers its
// drain cron job. Prerequisite: BackendKVDBClient, StorageClient, JobScheduler
func (c *Core) PrepareCleanupQueue() error {
	if c.BackendKVDBClient == nil {
		return errors.New("backend KVDB client not ready")
	}
	if c.StorageClient == nil {
		return errors.New("storage client not ready")
	}
	if c.JobScheduler == nil {
		return errors.New("job scheduler not ready")
	}
	c.CleanupQueue = &cleanup.Queue{
		AppName: c.AppName,
		KVDB:    c.BackendKVDBClient,
		Storage: c.StorageClient,
	}
	drainJob := schedjobs.NewEveryMinEmptyCronJob("cleanup-drain")
	drainJob.Task = func() error {
		ctx, cancel := context.WithTimeout(c.RootCtx, 50*time.Second)
		defer cancel()
		return c.CleanupQueue.Drain(ctx)
	}
	drainJob.OnFinished = func(err error) {
		if err != nil {
			log.Printf("[WARN] cleanup drain: %v", err)
		}
	}
	c.JobScheduler.AddCronJob(drainJob)
	return nil
}

// PrepareWebSessions prepares WebSessionManager
// Prerequisite: BackendKVDBClient
func (c *Core) PrepareWebSessions() error {
	confFilePath := filepath.Join(c.AppRoot, "config", ".web-session.json")
	confBytes, err := os.ReadFile(confFilePath) // ([]byte, error)
	if err != nil {
		return err
	}
	if c.BackendKVDBClient == nil {
		return errors.New("backend KVDB client not ready")
	}
	mgr := &session.Manager{
		AppName:           c.AppName,
		BackendKVDBClient: c.BackendKVDBClient,
	}
	if err = json.Unmarshal(confBytes, &mgr.Conf); err != nil {
		return err
	}
	// Web Login Session Cipher
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64([]byte(mgr.Conf.EncryptionKey))
	if err != nil {
		return fmt.Errorf("NewXChaCha20Poly1305Cipher: %v", err)
	}
	mgr.Cipher = cipher
	mgr.Conf.Cipher = cipher

	c.WebSessionManager = mgr
	return nil
}

func (c *Core) PrepareHTMLTemplateStore() error {
	c.HTMLTemplateStore = tpl.NewHTMLTemplateStore()
	return c.HTMLTemplateStore.LoadBaseTemplates(
		filepath.Join(c.AppRoot, "templates", "html"),
	)
}

func (c *Core) ResourceCleanUp() {
	log.Println("[INFO] App Resource Cleaning Up...")
	// Clean up DB clients ----
	if c.BackendKVDBClient != nil {
		if err := c.BackendKVDBClient.Close(); err != nil {
			log.Println("[ERROR] Failed to close KV database client")
		}
	}
	for name, sqlDBClient := range c.BackendSQLDBClients {
		dbType := sqlDBClient.GetConf().Type
		log.Printf("[INFO][%s] Closing %q SQL DB client", dbType, name)
		err := sqlDBClient.Close()
		if err != nil {
			log.Printf("[ERROR][%s] Failed to close %q SQL DB client", dbType, name)
		} else {
			log.Printf("[INFO][%s] %q SQL DB client closed", dbType, name)
		}
	}
	//----
	log.Println("[INFO] App Resource Cleanup Complete")
}
