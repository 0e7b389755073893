package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/joho/godotenv"

	"static-webserver/config"
	httpx "static-webserver/http"
	"static-webserver/nfs"
	"static-webserver/store"
	"static-webserver/tftp"
	"static-webserver/utils"
)

const version = "0.2"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [port]\n", os.Args[0])
	}
	flag.Parse()

	// .env may name another configuration file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}
	cfgPath := os.Getenv("STATICD_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	port := utils.ParsePort(flag.Arg(0), cfg.DefaultPort)

	root := osfs.New(cfg.Root)
	st := store.New(root)

	loggerHTTP := log.New(os.Stdout, "http ", log.LstdFlags)
	handler := httpx.NewHandler(cfg, st, loggerHTTP)
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	ln, err := httpx.StartHTTPServer(addr, handler, httpx.Options{MaxConns: cfg.MaxConns, ReusePort: cfg.ReusePort}, loggerHTTP)
	if err != nil {
		log.Fatalf("start http failure: %v", err)
	}
	printBanner(os.Stdout, version, fmt.Sprintf("http://%s:%d", cfg.Host, utils.PortOf(ln.Addr().String())))

	if cfg.TFTPAddr != "" {
		loggerTFTP := log.New(os.Stdout, "tftp ", log.LstdFlags)
		srv, err := tftp.StartTFTPServer(cfg.TFTPAddr, cfg, st, loggerTFTP)
		if err != nil {
			log.Fatalf("start tftp failure: %v", err)
		}
		defer srv.Shutdown()
	}
	if cfg.NFSAddr != "" {
		loggerNFS := log.New(os.Stdout, "nfs ", log.LstdFlags)
		nfsLn, err := nfs.StartNFSServer(cfg.NFSAddr, root, loggerNFS)
		if err != nil {
			log.Fatalf("start nfs failure: %v", err)
		}
		defer nfsLn.Close()
	}

	// Block until termination signal to keep goroutine servers alive
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received signal %s, exiting", sig)
	ln.Close()
}
