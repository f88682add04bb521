// Package factory constructs a Mapper and a Recorder from a flat
// configuration map, the same twelve-factor convention the rest of the
// pack uses to wire services from environment variables.
package factory

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/zoobzio/eventry"
	"github.com/zoobzio/eventry/cipher"
	"github.com/zoobzio/eventry/compressor"
	"github.com/zoobzio/eventry/notify"
	"github.com/zoobzio/eventry/recorder/memory"
	"github.com/zoobzio/eventry/recorder/postgres"
	"github.com/zoobzio/eventry/transcoder"
)

// Config is a flat key/value configuration map, typically populated from
// environment variables by the caller.
type Config map[string]string

func (c Config) get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok && v != ""
}

func (c Config) truthy(key string) bool {
	v, ok := c.get(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// InfrastructureFactory builds Mappers and Recorders from a Config.
type InfrastructureFactory struct {
	cfg       Config
	keySource KeySource
}

// New returns an InfrastructureFactory over cfg. If VAULT_ADDR, VAULT_TOKEN,
// and VAULT_SECRET_PATH are all set, cipher keys resolve through Vault
// instead of {APPNAME_}CIPHER_KEY.
func New(cfg Config) (*InfrastructureFactory, error) {
	f := &InfrastructureFactory{cfg: cfg}

	addr, hasAddr := cfg.get("VAULT_ADDR")
	token, hasToken := cfg.get("VAULT_TOKEN")
	path, hasPath := cfg.get("VAULT_SECRET_PATH")
	if hasAddr && hasToken && hasPath {
		ks, err := NewVaultKeySource(addr, token, path)
		if err != nil {
			return nil, eventry.NewConfigurationError("VAULT_ADDR", err)
		}
		f.keySource = ks
	}

	return f, nil
}

// BuildMapper constructs a Mapper for applicationName using tc as the
// transcoder, wiring in a Compressor and/or Cipher per COMPRESSOR_TOPIC
// and CIPHER_TOPIC. A cipher key configured in the map without
// CIPHER_TOPIC is a ConfigurationError.
func (f *InfrastructureFactory) BuildMapper(ctx context.Context, applicationName string, tc transcoder.Transcoder) (*eventry.Mapper, error) {
	var comp compressor.Compressor
	if topic, ok := f.cfg.get("COMPRESSOR_TOPIC"); ok {
		c, err := f.buildCompressor(topic)
		if err != nil {
			return nil, err
		}
		comp = c
	}

	var enc cipher.Cipher
	if topic, ok := f.cfg.get("CIPHER_TOPIC"); ok {
		c, err := f.buildCipher(ctx, applicationName, topic)
		if err != nil {
			return nil, err
		}
		enc = c
	} else if f.keySource == nil {
		if _, err := f.resolveCipherKey(ctx, applicationName); err == nil {
			return nil, eventry.NewConfigurationError("CIPHER_TOPIC", nil)
		}
	}

	return eventry.NewMapper(tc, comp, enc), nil
}

func (f *InfrastructureFactory) buildCompressor(topic string) (compressor.Compressor, error) {
	switch topic {
	case "zlib":
		return compressor.Zlib(topic, 0), nil
	default:
		return nil, eventry.NewConfigurationError("COMPRESSOR_TOPIC", nil)
	}
}

func (f *InfrastructureFactory) buildCipher(ctx context.Context, applicationName, topic string) (cipher.Cipher, error) {
	key, err := f.resolveCipherKey(ctx, applicationName)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, eventry.NewConfigurationError("CIPHER_KEY", err)
	}

	switch topic {
	case "aes":
		c, err := cipher.AES(topic, raw)
		if err != nil {
			return nil, eventry.NewConfigurationError("CIPHER_KEY", err)
		}
		return c, nil
	case "chacha20poly1305":
		c, err := cipher.ChaCha20Poly1305(topic, raw)
		if err != nil {
			return nil, eventry.NewConfigurationError("CIPHER_KEY", err)
		}
		return c, nil
	default:
		return nil, eventry.NewConfigurationError("CIPHER_TOPIC", nil)
	}
}

func (f *InfrastructureFactory) resolveCipherKey(ctx context.Context, applicationName string) (string, error) {
	if f.keySource != nil {
		key, err := f.keySource.ResolveKey(ctx, applicationName)
		if err != nil {
			return "", eventry.NewConfigurationError("VAULT_SECRET_PATH", err)
		}
		return key, nil
	}

	prefix := ""
	if applicationName != "" {
		prefix = strings.ToUpper(applicationName) + "_"
	}
	if key, ok := f.cfg.get(prefix + "CIPHER_KEY"); ok {
		return key, nil
	}
	if key, ok := f.cfg.get("CIPHER_KEY"); ok {
		return key, nil
	}
	return "", eventry.NewConfigurationError(prefix+"CIPHER_KEY", nil)
}

// BuildRecorder constructs a ProcessRecorder per PERSISTENCE_MODULE
// ("memory" or "postgres"). When NOTIFY_NATS_URL and NOTIFY_NATS_SUBJECT
// are both set, the result is wrapped with a notify.NATSPublisher.
func (f *InfrastructureFactory) BuildRecorder(ctx context.Context) (eventry.ProcessRecorder, error) {
	module, ok := f.cfg.get("PERSISTENCE_MODULE")
	if !ok {
		module = "memory"
	}

	var rec eventry.ProcessRecorder
	switch module {
	case "memory":
		rec = memory.New()
	case "postgres":
		pgRec, err := f.buildPostgresRecorder(ctx)
		if err != nil {
			return nil, err
		}
		rec = pgRec
	default:
		return nil, eventry.NewConfigurationError("PERSISTENCE_MODULE", nil)
	}

	return f.wrapNotifier(rec)
}

func (f *InfrastructureFactory) buildPostgresRecorder(ctx context.Context) (*postgres.Recorder, error) {
	dsn, ok := f.cfg.get("POSTGRES_DSN")
	if !ok {
		return nil, eventry.NewConfigurationError("POSTGRES_DSN", nil)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eventry.NewConfigurationError("POSTGRES_DSN", err)
	}
	if f.cfg.truthy("POSTGRES_TRACING") {
		poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eventry.NewBackendError("postgres_connect", err)
	}

	rec := postgres.New(pool)
	if f.cfg.truthy("CREATE_TABLE") {
		if err := rec.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (f *InfrastructureFactory) wrapNotifier(rec eventry.ProcessRecorder) (eventry.ProcessRecorder, error) {
	url, hasURL := f.cfg.get("NOTIFY_NATS_URL")
	subject, hasSubject := f.cfg.get("NOTIFY_NATS_SUBJECT")
	if !hasURL || !hasSubject {
		return rec, nil
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, eventry.NewBackendError("nats_connect", err)
	}

	appName, _ := f.cfg.get("APPLICATION_NAME")
	return notifyProcessRecorder{
		ProcessRecorder: rec,
		publisher:       notify.Wrap(rec, conn, subject, appName),
	}, nil
}

// notifyProcessRecorder layers notify.NATSPublisher's best-effort publish
// onto the full ProcessRecorder contract: InsertEvents is delegated to the
// publisher (which publishes after a successful insert), while every other
// method is delegated to the wrapped ProcessRecorder unchanged.
type notifyProcessRecorder struct {
	eventry.ProcessRecorder
	publisher *notify.NATSPublisher
}

func (n notifyProcessRecorder) InsertEvents(ctx context.Context, events []eventry.StoredEvent) ([]uint64, error) {
	return n.publisher.InsertEvents(ctx, events)
}

var _ eventry.ProcessRecorder = notifyProcessRecorder{}
