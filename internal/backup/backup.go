// Package backup snapshots the key-value store, encrypts it and keeps copies
// in S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/lifemate/internal/idgen"
	"github.com/dukerupert/lifemate/internal/kv"
)

// FormatVersion is written into every snapshot.
const FormatVersion = 1

var (
	ErrDisabled      = errors.New("backup not configured: S3 credentials missing")
	ErrNoPassphrase  = errors.New("backup passphrase not configured")
	ErrInvalidFormat = errors.New("unsupported backup format")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	Prefix     string
	Passphrase string
	// Interval between scheduled backups; zero disables the schedule.
	Interval time.Duration
	// Retention is how long uploaded backups are kept; zero keeps them all.
	Retention time.Duration
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Snapshot is the plaintext content of a backup.
type Snapshot struct {
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	Entries   []kv.Entry `json:"entries"`
}

// Object is one uploaded backup.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Manager manages encrypted backups to S3-compatible storage.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback

	kv     *kv.Store
	ids    *idgen.Generator
	client s3Client
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new backup manager. After a restore, ids is raised past
// every restored id so new records cannot collide with them.
func NewManager(cfg Config, kvs *kv.Store, ids *idgen.Generator, logger *slog.Logger, callback StatusCallback) *Manager {
	if cfg.Prefix == "" {
		cfg.Prefix = "lifemate"
	}
	m := &Manager{
		cfg:      cfg,
		kv:       kvs,
		ids:      ids,
		callback: callback,
		logger:   logger.With("component", "backup"),
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.complete() {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled || m.cfg.Interval <= 0 || m.cfg.Passphrase == "" {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.scheduled(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) scheduled(ctx context.Context) {
	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
		return
	}
	m.mu.RLock()
	retention := m.cfg.Retention
	m.mu.RUnlock()
	if retention > 0 {
		if _, err := m.Cleanup(ctx, retention); err != nil {
			m.logger.Error("backup cleanup failed", "error", err)
		}
	}
}

// Export returns the current store contents encrypted with passphrase.
func (m *Manager) Export(passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	entries, err := m.kv.Entries()
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	if entries == nil {
		entries = []kv.Entry{}
	}
	plain, err := json.Marshal(Snapshot{
		Version:   FormatVersion,
		CreatedAt: m.now().UTC(),
		Entries:   entries,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return Encrypt(plain, passphrase)
}

// Import decrypts data and replaces the store contents with it.
func (m *Manager) Import(data []byte, passphrase string) (Snapshot, error) {
	plain, err := Decrypt(data, passphrase)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("version %d: %w", snap.Version, ErrInvalidFormat)
	}
	for _, e := range snap.Entries {
		if !json.Valid(e.Value) {
			return Snapshot{}, fmt.Errorf("entry %q: %w", e.Key, ErrInvalidFormat)
		}
	}
	if err := m.kv.Restore(snap.Entries); err != nil {
		return Snapshot{}, fmt.Errorf("restore store: %w", err)
	}
	if m.ids != nil {
		for _, e := range snap.Entries {
			m.ids.Observe(idgen.MaxID(e.Value))
		}
	}
	m.logger.Info("backup restored", "entries", len(snap.Entries), "created_at", snap.CreatedAt)
	return snap, nil
}

func (m *Manager) target() (s3Client, string, string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, "", "", "", ErrDisabled
	}
	return m.client, m.cfg.S3.Bucket, m.cfg.Prefix, m.cfg.Passphrase, nil
}

// RunNow uploads a backup immediately and returns its object key.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	client, bucket, prefix, passphrase, err := m.target()
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", ErrNoPassphrase
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})
	fail := func(err error) (string, error) {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", err
	}

	data, err := m.Export(passphrase)
	if err != nil {
		return fail(err)
	}

	now := m.now().UTC()
	key := path.Join(prefix, fmt.Sprintf("backup-%s.json.enc", now.Format("2006-01-02T150405Z")))
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fail(fmt.Errorf("upload to s3: %w", err))
	}

	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", key, "bytes", len(data))
	return key, nil
}

// List returns uploaded backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	client, bucket, prefix, _, err := m.target()
	if err != nil {
		return nil, err
	}

	var (
		objects []Object
		token   *string
	)
	for {
		out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix + "/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, o := range out.Contents {
			key := aws.ToString(o.Key)
			if !strings.HasSuffix(key, ".json.enc") {
				continue
			}
			objects = append(objects, Object{
				Key:          key,
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Restore downloads the backup at key and replaces the store contents.
func (m *Manager) Restore(ctx context.Context, key, passphrase string) (Snapshot, error) {
	client, bucket, _, defaultPass, err := m.target()
	if err != nil {
		return Snapshot{}, err
	}
	if passphrase == "" {
		passphrase = defaultPass
	}
	if passphrase == "" {
		return Snapshot{}, ErrNoPassphrase
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read backup: %w", err)
	}
	return m.Import(data, passphrase)
}

// Cleanup deletes backups older than retention and returns how many went.
func (m *Manager) Cleanup(ctx context.Context, retention time.Duration) (int, error) {
	client, bucket, _, _, err := m.target()
	if err != nil {
		return 0, err
	}
	objects, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := m.now().Add(-retention)
	deleted := 0
	for _, o := range objects {
		if !o.LastModified.Before(cutoff) {
			continue
		}
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(o.Key),
		}); err != nil {
			m.logger.Warn("delete old backup", "key", o.Key, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
