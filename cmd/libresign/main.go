package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/libresign/libresign/conf"
	"github.com/libresign/libresign/documents"
	"github.com/libresign/libresign/fields"
	"github.com/libresign/libresign/signatures"
	"github.com/libresign/libresign/throttle"
	"github.com/libresign/libresign/tpl"
	"github.com/libresign/libresign/web/gate"
	"github.com/libresign/libresign/web/handlers"
)

func main() {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	appRoot, err := os.Getwd()
	if err != nil {
		log.Fatalf("[ERROR] cannot resolve app root: %v", err)
	}

	core := &conf.Core{}
	if err = core.BaseInit(appRoot, rootCtx, rootCancel); err != nil {
		log.Fatalf("[ERROR] core init failed: %v", err)
	}
	if err = core.PrepareKVDatabase(); err != nil {
		log.Fatalf("[ERROR] kv database: %v", err)
	}
	if err = core.PrepareSQLDatabases(); err != nil {
		log.Fatalf("[ERROR] sql databases: %v", err)
	}
	if err = core.PreparePlatform(); err != nil {
		log.Fatalf("[ERROR] platform client: %v", err)
	}
	if err = core.PrepareStorage(); err != nil {
		log.Fatalf("[ERROR] storage client: %v", err)
	}
	core.PrepareJobScheduler()
	if err = core.PrepareCleanupQueue(); err != nil {
		log.Fatalf("[ERROR] cleanup queue: %v", err)
	}
	if err = core.PrepareWebSessions(); err != nil {
		log.Fatalf("[ERROR] web sessions: %v", err)
	}
	if err = core.PrepareThrottleBucketStore(10*time.Minute, 30*time.Minute); err != nil {
		log.Fatalf("[ERROR] throttle store: %v", err)
	}
	if err = core.PrepareHTMLTemplateStore(); err != nil {
		log.Fatalf("[ERROR] html templates: %v", err)
	}
	if err = composePageTemplates(core.HTMLTemplateStore); err != nil {
		log.Fatalf("[ERROR] html templates: %v", err)
	}

	mainDB, err := core.MainSQLDBClient()
	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}

	documentStore := &documents.Store{
		SQL:     mainDB,
		Storage: core.StorageClient,
		Cleanup: core.CleanupQueue,
	}
	fieldStore := &fields.Store{SQL: mainDB}
	signatureStore := &signatures.Store{
		SQL:     mainDB,
		Storage: core.StorageClient,
		Cleanup: core.CleanupQueue,
	}

	h := &handlers.Handlers{
		AppName:    core.AppName,
		Sessions:   core.WebSessionManager,
		Platform:   core.PlatformClient,
		Storage:    core.StorageClient,
		Documents:  documentStore,
		Fields:     fieldStore,
		Signatures: signatureStore,
		Templates:  core.HTMLTemplateStore,
	}

	jwtSecret := []byte(core.PlatformClient.Conf.JWTSecret)
	router := h.BuildRouter(handlers.RouterDeps{
		Gate:           &gate.Gate{Sessions: core.WebSessionManager, Platform: core.PlatformClient, JWTSecret: jwtSecret},
		Loader:         &gate.Loader{Sessions: core.WebSessionManager, JWTSecret: jwtSecret},
		AuthThrottle:   &throttle.Wrapper{Store: core.ThrottleBucketStore, GroupID: "auth"},
		UploadThrottle: &throttle.Wrapper{Store: core.ThrottleBucketStore, GroupID: "upload"},
		StaticRoot:     appRoot + "/static",
		EchoAPI:        core.DebugOpts.EchoAPI,
	})

	core.PrepareWebService(core.Listen, router)

	if err = core.StartServices(); err != nil {
		log.Fatalf("[ERROR] service start failed: %v", err)
	}
	go func() {
		<-rootCtx.Done()
		core.StopServices()
	}()
	if err = core.WaitServicesDone(); err != nil {
		log.Printf("[ERROR] service exited: %v", err)
	}
	core.ResourceCleanUp()
	log.Printf("[INFO] %q shutdown complete", core.AppName)
}


// composePageTemplates builds the combined page templates from the shared
// layout plus each page body.
func composePageTemplates(store *tpl.HTMLTemplateStore) error {
	pages := []string{
		"home", "login", "signup", "dashboard",
		"document_new", "document_view", "document_edit", "signatures",
	}
	for _, page := range pages {
		if err := store.Compose(page, "base", page); err != nil {
			return err
		}
	}
	return nil
}
