// Package nfs exports the document root read-only over NFSv3.
package nfs

import (
	"log"
	"net"

	"github.com/go-git/go-billy/v5"
	gonfs "github.com/willscott/go-nfs"
	"github.com/willscott/go-nfs/helpers"
)

// Number of file handles kept by the caching handler.
const handleCacheSize = 1024

// StartNFSServer exports fs on addr in the background. Clients mount it
// without authentication and cannot write to it.
func StartNFSServer(addr string, fs billy.Filesystem, logger *log.Logger) (net.Listener, error) {
	if addr == "" {
		addr = ":2049"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	handler := helpers.NewCachingHandler(helpers.NewNullAuthHandler(ReadOnly(fs)), handleCacheSize)

	go func() {
		if logger != nil {
			logger.Printf("nfsd listening on %s root=%q", ln.Addr(), fs.Root())
		}
		if err := gonfs.Serve(ln, handler); err != nil {
			if logger != nil {
				logger.Printf("nfsd serve error: %v", err)
			}
		}
	}()
	return ln, nil
}
