package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/libresign/libresign/svc"
)

const shutdownTimeout = 10 * time.Second

type Service struct {
	Ctx    context.Context    // Service Context
	Cancel context.CancelFunc // Service Context CancelFunc
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel
	Server *http.Server
}

var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		Cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

func (s *Service) Name() string {
	return "WebService"
}

func (s *Service) Start() error {
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	s.state = svc.StateRUNNING
	go func() {
		log.Printf("[INFO] web service listening on %s ...", s.Server.Addr)
		if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.done <- err
		} else {
			s.done <- nil
		}
	}()
	return nil
}

// Stop shuts the server down, giving in-flight requests shutdownTimeout
// to finish. New requests are refused immediately.
func (s *Service) Stop() {
	if s.state != svc.StateRUNNING {
		log.Println("[ERROR] web service cannot stop. not running")
		return
	}
	s.state = svc.StateSTOPPED
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] web service shutdown failed: %v", err)
	}
	s.Cancel()
}

func (s *Service) Done() <-chan error {
	return s.done
}
