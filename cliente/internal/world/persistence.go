package world

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StorageKey é a chave fixa do blob do mundo.
const StorageKey = "yardvision.world"

// CurrentFormatVersion é gravado em WorldMetadata a cada abertura.
const CurrentFormatVersion = 1

// Backend é o armazenamento durável de blobs por chave.
// Load devolve (nil, nil) quando a chave não existe.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// StateBlob representa o esquema do banco para um blob de estado.
type StateBlob struct {
	Key       string `gorm:"primaryKey"`
	Data      []byte
	UpdatedAt time.Time
}

// WorldMetadata armazena informações globais do mundo no banco.
type WorldMetadata struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// SQLiteBackend grava os blobs em saves/<mundo>.yv via gorm.
type SQLiteBackend struct {
	db   *gorm.DB
	path string
}

// OpenSQLite abre (ou cria) o banco SQLite do mundo e roda as migrações.
func OpenSQLite(path, worldName string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	// Logger silencioso: erros chegam pelo retorno.
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no SQLite: %w", err)
	}

	if err := db.AutoMigrate(&StateBlob{}, &WorldMetadata{}); err != nil {
		return nil, fmt.Errorf("falha na migração do banco: %w", err)
	}

	db.Save(&WorldMetadata{Key: "FormatVersion", Value: fmt.Sprint(CurrentFormatVersion)})
	if worldName != "" {
		db.Save(&WorldMetadata{Key: "WorldName", Value: worldName})
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Path devolve o arquivo do banco.
func (b *SQLiteBackend) Path() string { return b.path }

func (b *SQLiteBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var blob StateBlob
	err := b.db.WithContext(ctx).First(&blob, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

// Save faz upsert do blob.
func (b *SQLiteBackend) Save(ctx context.Context, key string, data []byte) error {
	return b.db.WithContext(ctx).Save(&StateBlob{Key: key, Data: data}).Error
}

// Metadata lê um valor de WorldMetadata ("" se ausente).
func (b *SQLiteBackend) Metadata(key string) string {
	var m WorldMetadata
	if err := b.db.First(&m, "key = ?", key).Error; err != nil {
		return ""
	}
	return m.Value
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryBackend guarda os blobs em memória. Usado em testes e quando o disco falha.
type MemoryBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	FailErr error // quando não nil, Save devolve este erro
}

// NewMemoryBackend cria um backend vazio.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), d...), nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailErr != nil {
		return m.FailErr
	}
	m.data[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves devolve quantas gravações tiveram sucesso.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetFail troca o erro devolvido por Save.
func (m *MemoryBackend) SetFail(err error) {
	m.mu.Lock()
	m.FailErr = err
	m.mu.Unlock()
}

func (m *MemoryBackend) Close() error { return nil }

// persister grava snapshots numa única goroutine. Snapshots pendentes são
// substituídos pelo mais recente; só o último estado importa.
type persister struct {
	backend Backend
	onError func(error)

	mu      sync.Mutex
	pending []byte
	dirty   bool

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

func newPersister(b Backend, onError func(error)) *persister {
	p := &persister{
		backend: b,
		onError: onError,
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(data []byte) {
	p.mu.Lock()
	p.pending = data
	p.dirty = true
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.write()
		case ack := <-p.flush:
			p.write()
			close(ack)
		case <-p.stop:
			p.write()
			return
		}
	}
}

func (p *persister) write() {
	p.mu.Lock()
	data, dirty := p.pending, p.dirty
	p.pending, p.dirty = nil, false
	p.mu.Unlock()
	if !dirty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.backend.Save(ctx, StorageKey, data); err != nil && p.onError != nil {
		p.onError(err)
	}
}

// Flush espera a gravação do snapshot pendente.
func (p *persister) Flush() {
	ack := make(chan struct{})
	select {
	case p.flush <- ack:
		<-ack
	case <-p.done:
	}
}

// Close grava o que falta e encerra a goroutine.
func (p *persister) Close() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	<-p.done
}
