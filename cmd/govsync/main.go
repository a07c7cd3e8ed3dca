package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tsbuk33/Aqlhr-ai-hr-platform-sub019/internal/server"
)

// govsync runs one bulk government sync for a tenant and exits non-zero
// when any adapter failed.
func main() {
	tenantID := strings.TrimSpace(os.Getenv("TENANT_ID"))
	if tenantID == "" {
		log.Fatal("TENANT_ID is required")
	}

	var adapters []string
	for part := range strings.SplitSeq(os.Getenv("GOVSYNC_ADAPTERS"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			adapters = append(adapters, part)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	svc, closeFn, err := server.NewSyncServiceFromEnv(ctx, nil, log.Default())
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	failed := 0
	for _, res := range svc.BulkSync(ctx, tenantID, adapters) {
		if !res.Success {
			failed++
			log.Printf("govsync: adapter=%s tenant=%s ok=false err=%s", res.Adapter, tenantID, res.Message)
			continue
		}
		log.Printf("govsync: adapter=%s tenant=%s ok=true records=%d", res.Adapter, tenantID, res.Records)
	}
	if failed > 0 {
		closeFn()
		log.Fatalf("govsync: %d adapter(s) failed", failed)
	}
}
