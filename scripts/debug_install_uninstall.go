// Debug helper for exercising install/uninstall flows against a local
// catalog without touching the real BadgeHub API or install root.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/VoxDroid/bhub/internal/catalog"
	"github.com/VoxDroid/bhub/internal/config"
	"github.com/VoxDroid/bhub/internal/install"
	"github.com/VoxDroid/bhub/internal/ledger"
	"github.com/VoxDroid/bhub/internal/transport"
	"github.com/VoxDroid/bhub/internal/version"
)

func main() {
	tmp, err := os.MkdirTemp("", "debuginstall")
	if err != nil {
		panic(err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	body := []byte("print('hello badge')\n")
	sum := sha256.Sum256(body)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	d := catalog.ProjectDetail{
		Slug:     "debug_app",
		Revision: 1,
		Name:     "Debug App",
		Version:  "0.0.1",
		Files: []catalog.ProjectFile{
			{FullPath: "__init__.py", SHA256: hex.EncodeToString(sum[:]), URL: srv.URL + "/__init__.py"},
			{FullPath: "lib/util.py", URL: srv.URL + "/lib/util.py"},
		},
	}

	root := filepath.Join(tmp, "apps")
	repo, err := ledger.Open(config.LedgerPath(root))
	if err != nil {
		panic(err)
	}
	defer func() { _ = repo.Close() }()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := install.New(install.Options{
		Root:      root,
		Transport: transport.NewHTTP(transport.Options{UserAgent: version.UserAgent()}),
		Recorder:  repo,
		Logger:    log,
	})

	actions, err := p.Plan(d)
	fmt.Println("install actions:", actions, "err:", err)
	res, err := p.Install(context.Background(), d, func(e install.Event) { fmt.Println(" ", e.Status()) })
	if err != nil {
		fmt.Println("install failed:", err)
		return
	}
	fmt.Printf("installed %s rev %d: %d files, %d bytes, run %s\n", res.Slug, res.Revision, len(res.Files), res.Bytes, res.RunID)

	rec, err := repo.GetInstall(d.Slug)
	fmt.Println("ledger record:", rec != nil, "err:", err)

	actions, err = p.PlanUninstall(d.Slug)
	fmt.Println("uninstall actions:", actions, "err:", err)
	err = p.Uninstall(d.Slug)
	fmt.Println("uninstall err:", err)
	info, err := os.Stat(p.Dir(d.Slug))
	if err != nil {
		fmt.Println("installDir missing as expected")
	} else {
		fmt.Println("installDir still exists: ", info.Name())
		ents, _ := os.ReadDir(p.Dir(d.Slug))
		for _, e := range ents {
			fmt.Println(" - entry:", e.Name())
		}
	}
}
