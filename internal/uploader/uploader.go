// Package uploader transfers built packages to the e-depot over FTPS and
// drives the surrounding SIP status transitions.
package uploader

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"

	"sipforge/internal/config"
	"sipforge/internal/services"
	"sipforge/internal/sipstore"
)

// Conn is the slice of the FTP client the uploader needs.
type Conn interface {
	Login(user, password string) error
	ChangeDir(path string) error
	MakeDir(path string) error
	Stor(name string, r io.Reader) error
	Quit() error
}

// Dialer opens a connection to the e-depot.
type Dialer func(ctx context.Context, addr string) (Conn, error)

// Uploader sends package and sidecar to the configured e-depot host.
type Uploader struct {
	cfg    config.EDepot
	store  *sipstore.Store
	dial   Dialer
	logger *slog.Logger
}

// New builds an uploader that dials the e-depot with explicit TLS.
func New(cfg *config.Config, store *sipstore.Store, logger *slog.Logger) *Uploader {
	host := cfg.EDepot.Host
	return NewWithDialer(cfg, store, logger, func(ctx context.Context, addr string) (Conn, error) {
		return ftp.Dial(
			addr,
			ftp.DialWithContext(ctx),
			ftp.DialWithExplicitTLS(&tls.Config{ServerName: host}),
			ftp.DialWithTimeout(30*time.Second),
		)
	})
}

// NewWithDialer builds an uploader with an explicit dialer.
func NewWithDialer(cfg *config.Config, store *sipstore.Store, logger *slog.Logger, dial Dialer) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{cfg: cfg.EDepot, store: store, dial: dial, logger: logger}
}

// Upload transfers a SIP's package and sidecar. The SIP must be in
// sip_created; it moves through uploading to uploaded, or back to
// sip_created with the failure recorded.
func (u *Uploader) Upload(ctx context.Context, sip *sipstore.SIP, packagePath, sidecarPath string) error {
	if sip.Status != sipstore.StatusCreated {
		return services.Wrap(services.ErrValidation, "uploader", "upload",
			fmt.Sprintf("SIP %s is %s, only %s can be uploaded", sip.Name, sip.Status, sipstore.StatusCreated), nil)
	}
	for _, path := range []string{packagePath, sidecarPath} {
		if _, err := os.Stat(path); err != nil {
			return services.Wrap(services.ErrNotFound, "uploader", "upload", "package artifact missing", err)
		}
	}

	if err := u.store.SetStatus(ctx, sip.ID, sipstore.StatusUploading); err != nil {
		return services.Wrap(services.ErrTransient, "uploader", "set status", "", err)
	}

	err := u.transfer(ctx, packagePath, sidecarPath)
	if err != nil {
		u.logger.Error("upload failed", "sip", sip.Name, "error", err)
		if serr := u.store.SetError(ctx, sip.ID, err.Error()); serr != nil {
			u.logger.Error("record upload failure", "sip", sip.Name, "error", serr)
		}
		if serr := u.store.SetStatus(ctx, sip.ID, services.UploadFailureStatus(err)); serr != nil {
			u.logger.Error("reset status after failure", "sip", sip.Name, "error", serr)
		}
		return err
	}

	if err := u.store.SetError(ctx, sip.ID, ""); err != nil {
		return services.Wrap(services.ErrTransient, "uploader", "clear error", "", err)
	}
	if err := u.store.SetStatus(ctx, sip.ID, sipstore.StatusUploaded); err != nil {
		return services.Wrap(services.ErrTransient, "uploader", "set status", "", err)
	}
	u.logger.Info("upload complete", "sip", sip.Name, "package", filepath.Base(packagePath))
	return nil
}

func (u *Uploader) transfer(ctx context.Context, packagePath, sidecarPath string) error {
	if u.cfg.SkipUpload {
		u.logger.Warn("skip_upload enabled, not contacting the e-depot",
			"package", filepath.Base(packagePath))
		return nil
	}

	addr := net.JoinHostPort(u.cfg.Host, strconv.Itoa(u.cfg.Port))
	conn, err := u.dial(ctx, addr)
	if err != nil {
		return services.Wrap(services.ErrTransient, "uploader", "dial", addr, err)
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login(u.cfg.User, u.cfg.Password); err != nil {
		return services.Wrap(services.ErrConfiguration, "uploader", "login", u.cfg.User, err)
	}
	if u.cfg.RemoteDir != "" {
		if err := conn.ChangeDir(u.cfg.RemoteDir); err != nil {
			if mkErr := conn.MakeDir(u.cfg.RemoteDir); mkErr != nil {
				return services.Wrap(services.ErrConfiguration, "uploader", "chdir", u.cfg.RemoteDir, err)
			}
			if err := conn.ChangeDir(u.cfg.RemoteDir); err != nil {
				return services.Wrap(services.ErrConfiguration, "uploader", "chdir", u.cfg.RemoteDir, err)
			}
		}
	}

	// The sidecar goes last so the e-depot only picks up complete packages.
	for _, path := range []string{packagePath, sidecarPath} {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := u.storeFile(conn, path); err != nil {
			return services.Wrap(services.ErrTransient, "uploader", "store", filepath.Base(path), err)
		}
		u.logger.Info("stored", "file", filepath.Base(path))
	}
	return nil
}

func (u *Uploader) storeFile(conn Conn, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return conn.Stor(filepath.Base(path), f)
}
