package main

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/digicash-labs/kvobject-go/pkg/config"
	"github.com/digicash-labs/kvobject-go/pkg/crypto"
	"github.com/digicash-labs/kvobject-go/pkg/keystore"
	"github.com/digicash-labs/kvobject-go/pkg/kvobject"
	"github.com/digicash-labs/kvobject-go/pkg/logger"
	"github.com/digicash-labs/kvobject-go/pkg/payloads"
	"github.com/digicash-labs/kvobject-go/pkg/persistence"
	badgerstore "github.com/digicash-labs/kvobject-go/pkg/persistence/badger"
	memorystore "github.com/digicash-labs/kvobject-go/pkg/persistence/memory"
	redisstore "github.com/digicash-labs/kvobject-go/pkg/persistence/redis"
)

func main() {
	app := &cli.App{
		Name:  "kvtool",
		Usage: "Sign, verify and inspect tamper-evident message envelopes",
		Description: `kvtool works with the binary envelope format used across the quota and
currency protocol: a one-byte message type, the signer's certificate, a
detached signature over the payload bytes, and the payload itself.

Key pairs and signed envelopes can be kept in a memory, badger or redis
store selected with --store.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "store",
				Value:   "memory",
				Usage:   "Envelope store backend: memory, badger or redis",
				EnvVars: []string{config.EnvStoreType},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Usage:   "Data directory for the badger store",
				EnvVars: []string{config.EnvBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis server address (host:port)",
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number (0-15)",
				EnvVars: []string{config.EnvRedisDB},
			},
			&cli.StringFlag{
				Name:    "key",
				Usage:   "Name of the signing key pair in the store",
				EnvVars: []string{config.EnvKeyName},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "Generate a key pair and save it to the store",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "Name for the key pair"},
					&cli.StringFlag{Name: "seed", Usage: "Optional 32-byte hex seed for deterministic derivation"},
				},
				Action: runKeygen,
			},
			{
				Name:   "keys",
				Usage:  "List key pairs in the store",
				Action: runKeys,
			},
			{
				Name:  "sign",
				Usage: "Build and sign an envelope around a payload",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Required: true, Usage: "Message type name (e.g. Transaction) or tag byte (e.g. 0x06)"},
					&cli.StringFlag{Name: "body", Required: true, Usage: "Payload bytes as hex"},
					&cli.BoolFlag{Name: "save", Usage: "Save the signed envelope to the store"},
				},
				Action: runSign,
			},
			{
				Name:  "verify",
				Usage: "Decode an envelope and verify its signature",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Usage: "Envelope bytes as hex"},
					&cli.StringFlag{Name: "id", Usage: "Envelope ID in the store"},
				},
				Action: runVerify,
			},
			{
				Name:  "peek",
				Usage: "Print the message type of an envelope without decoding it",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Required: true, Usage: "Envelope bytes as hex"},
				},
				Action: runPeek,
			},
			{
				Name:  "attr",
				Usage: "Keyed access to payload fields through the envelope",
				Subcommands: []*cli.Command{
					{
						Name:  "get",
						Usage: "Read one payload field",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "data", Usage: "Envelope bytes as hex"},
							&cli.StringFlag{Name: "id", Usage: "Envelope ID in the store"},
							&cli.StringFlag{Name: "attr", Required: true, Usage: "Attribute key"},
						},
						Action: runAttrGet,
					},
					{
						Name:  "set",
						Usage: "Patch one payload field and re-sign the envelope",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "data", Usage: "Envelope bytes as hex"},
							&cli.StringFlag{Name: "id", Usage: "Envelope ID in the store"},
							&cli.StringFlag{Name: "attr", Required: true, Usage: "Attribute key"},
							&cli.StringFlag{Name: "value", Required: true, Usage: "New field bytes as hex"},
						},
						Action: runAttrSet,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List envelopes in the store",
				Action: runList,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// parseConfig builds and validates the tool configuration from flags.
func parseConfig(c *cli.Context) (*config.ToolConfig, error) {
	storeType, err := config.ParseStoreType(c.String("store"))
	if err != nil {
		return nil, err
	}

	cfg := &config.ToolConfig{
		StoreType:     storeType,
		BadgerPath:    c.String("badger-path"),
		RedisAddress:  c.String("redis-address"),
		RedisPassword: c.String("redis-password"),
		RedisDB:       c.Int("redis-db"),
		KeyName:       c.String("key"),
		Debug:         c.Bool("debug"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newStore opens the configured store backend.
func newStore(cfg *config.ToolConfig, zl *zap.Logger) (persistence.IEnvelopeStore, error) {
	switch cfg.StoreType {
	case config.StoreTypeMemory:
		return memorystore.NewMemoryStore(), nil
	case config.StoreTypeBadger:
		return badgerstore.NewBadgerStore(cfg.BadgerPath, zl)
	case config.StoreTypeRedis:
		return redisstore.NewRedisStore(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, zl)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}

type toolEnv struct {
	cfg    *config.ToolConfig
	logger *zap.Logger
	store  persistence.IEnvelopeStore
}

func setup(c *cli.Context) (*toolEnv, error) {
	cfg, err := parseConfig(c)
	if err != nil {
		return nil, err
	}

	zl, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := newStore(cfg, zl)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s store", cfg.StoreType)
	}

	return &toolEnv{cfg: cfg, logger: zl, store: store}, nil
}

func (e *toolEnv) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Sugar().Warnw("Failed to close store", "error", err)
	}
	_ = e.logger.Sync()
}

// signingKey resolves the signing identity: the key pair named by --key,
// or the store's first key when no name is given.
func (e *toolEnv) signingKey() (*crypto.KeyPair, error) {
	ks := keystore.NewKeyStore()
	if err := ks.LoadFromStore(e.store); err != nil {
		return nil, errors.Wrap(err, "failed to load key pairs from store")
	}

	if e.cfg.KeyName == "" {
		kp, err := ks.Active()
		if err != nil {
			return nil, fmt.Errorf("no signing key available, run keygen or pass --key")
		}
		return kp, nil
	}

	kp, err := ks.Get(e.cfg.KeyName)
	if err != nil {
		return nil, errors.Wrapf(err, "key pair %s not found in store", e.cfg.KeyName)
	}
	return kp, nil
}

// envelopeBytes resolves the envelope input from --data or --id.
func (e *toolEnv) envelopeBytes(c *cli.Context) ([]byte, error) {
	if data := c.String("data"); data != "" {
		raw, err := hex.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("invalid envelope hex: %w", err)
		}
		return raw, nil
	}
	if id := c.String("id"); id != "" {
		env, err := e.store.LoadEnvelope(id)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load envelope %s", id)
		}
		if env == nil {
			return nil, fmt.Errorf("envelope %s not found in store", id)
		}
		return env.Raw, nil
	}
	return nil, fmt.Errorf("pass either --data or --id")
}

// parseMsgType accepts a variant name ("Transaction") or a tag byte
// ("0x06" / "6").
func parseMsgType(s string) (kvobject.MsgType, error) {
	for b := byte(1); ; b++ {
		t, err := kvobject.DecodeMsgType(b)
		if err != nil {
			break
		}
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}

	var b byte
	if _, err := fmt.Sscanf(strings.ToLower(s), "0x%x", &b); err != nil {
		if _, err := fmt.Sscanf(s, "%d", &b); err != nil {
			return 0, fmt.Errorf("unknown message type: %s", s)
		}
	}
	return kvobject.DecodeMsgType(b)
}

func runKeygen(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	name := c.String("name")

	var kp *crypto.KeyPair
	if seedHex := c.String("seed"); seedHex != "" {
		raw, err := hex.DecodeString(seedHex)
		if err != nil {
			return fmt.Errorf("invalid seed hex: %w", err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("seed must be 32 bytes, got %d", len(raw))
		}
		var seed [32]byte
		copy(seed[:], raw)
		kp, err = crypto.NewKeyPairFromSeed(seed)
		if err != nil {
			return errors.Wrap(err, "failed to derive key pair from seed")
		}
	} else {
		kp, err = crypto.GenerateKeyPair(crand.Reader)
		if err != nil {
			return errors.Wrap(err, "failed to generate key pair")
		}
	}

	if err := env.store.SaveKeyPair(&persistence.KeyPairRecord{
		Name:      name,
		KeyPair:   kp,
		CreatedAt: time.Now().Unix(),
	}); err != nil {
		return errors.Wrapf(err, "failed to save key pair %s", name)
	}

	certHex, _ := kp.Certificate().MarshalText()
	fmt.Printf("Key pair:    %s\n", name)
	fmt.Printf("Certificate: %s\n", certHex)
	return nil
}

func runKeys(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	ks := keystore.NewKeyStore()
	if err := ks.LoadFromStore(env.store); err != nil {
		return errors.Wrap(err, "failed to load key pairs from store")
	}
	for _, name := range ks.Names() {
		kp, err := ks.Get(name)
		if err != nil {
			return err
		}
		certHex, _ := kp.Certificate().MarshalText()
		fmt.Printf("%s\t%s\n", name, certHex)
	}
	return nil
}

func runSign(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	msgType, err := parseMsgType(c.String("type"))
	if err != nil {
		return err
	}
	body, err := hex.DecodeString(c.String("body"))
	if err != nil {
		return fmt.Errorf("invalid body hex: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("body cannot be empty")
	}

	kp, err := env.signingKey()
	if err != nil {
		return err
	}

	obj := kvobject.New(msgType, &payloads.Raw{Data: body})
	raw, err := obj.SignAndEncode(kp, crand.Reader)
	if err != nil {
		return errors.Wrap(err, "failed to sign envelope")
	}

	fmt.Printf("%X\n", raw)

	if c.Bool("save") {
		id := uuid.New().String()
		if err := env.store.SaveEnvelope(&persistence.StoredEnvelope{
			ID:        id,
			MsgType:   msgType.Byte(),
			Raw:       raw,
			CreatedAt: time.Now().Unix(),
		}); err != nil {
			return errors.Wrapf(err, "failed to save envelope %s", id)
		}
		fmt.Printf("Saved as %s\n", id)
	}
	return nil
}

func runVerify(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	raw, err := env.envelopeBytes(c)
	if err != nil {
		return err
	}

	msgType, cert, err := decodeAndVerify(raw)
	if err != nil {
		return err
	}

	certHex, _ := cert.MarshalText()
	fmt.Printf("Type:        %s\n", msgType)
	fmt.Printf("Certificate: %s\n", certHex)
	fmt.Printf("Signature:   valid\n")
	return nil
}

// decodeAndVerify dispatches on the peeked tag: quota control fields get
// their typed decoder, everything else decodes as a raw payload. Decoding
// verifies the signature inline.
func decodeAndVerify(raw []byte) (kvobject.MsgType, *crypto.Certificate, error) {
	msgType, err := kvobject.PeekMsgType(raw)
	if err != nil {
		return 0, nil, err
	}

	switch msgType {
	case kvobject.MsgTypeQuotaControlField:
		obj, err := kvobject.Decode[payloads.QuotaControlField](raw)
		if err != nil {
			return 0, nil, err
		}
		return obj.MsgType(), obj.Certificate(), nil
	default:
		obj, err := kvobject.Decode[payloads.Raw](raw)
		if err != nil {
			return 0, nil, err
		}
		return obj.MsgType(), obj.Certificate(), nil
	}
}

func runPeek(c *cli.Context) error {
	raw, err := hex.DecodeString(c.String("data"))
	if err != nil {
		return fmt.Errorf("invalid envelope hex: %w", err)
	}
	msgType, err := kvobject.PeekMsgType(raw)
	if err != nil {
		return err
	}
	fmt.Printf("%s (0x%02x)\n", msgType, msgType.Byte())
	return nil
}

func runAttrGet(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	raw, err := env.envelopeBytes(c)
	if err != nil {
		return err
	}
	key := c.String("attr")

	msgType, err := kvobject.PeekMsgType(raw)
	if err != nil {
		return err
	}

	var value []byte
	if msgType == kvobject.MsgTypeQuotaControlField {
		obj, err := kvobject.Decode[payloads.QuotaControlField](raw)
		if err != nil {
			return err
		}
		value, err = obj.GetAttr(key)
		if err != nil {
			return err
		}
	} else {
		obj, err := kvobject.Decode[payloads.Raw](raw)
		if err != nil {
			return err
		}
		value, err = obj.GetAttr(key)
		if err != nil {
			return err
		}
	}

	fmt.Printf("%X\n", value)
	return nil
}

func runAttrSet(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	raw, err := env.envelopeBytes(c)
	if err != nil {
		return err
	}
	key := c.String("attr")
	value, err := hex.DecodeString(c.String("value"))
	if err != nil {
		return fmt.Errorf("invalid value hex: %w", err)
	}

	kp, err := env.signingKey()
	if err != nil {
		return err
	}

	msgType, err := kvobject.PeekMsgType(raw)
	if err != nil {
		return err
	}

	var resigned []byte
	if msgType == kvobject.MsgTypeQuotaControlField {
		obj, err := kvobject.Decode[payloads.QuotaControlField](raw)
		if err != nil {
			return err
		}
		if err := obj.SetAttr(key, value); err != nil {
			return err
		}
		resigned, err = obj.SignAndEncode(kp, crand.Reader)
		if err != nil {
			return errors.Wrap(err, "failed to re-sign envelope")
		}
	} else {
		obj, err := kvobject.Decode[payloads.Raw](raw)
		if err != nil {
			return err
		}
		if err := obj.SetAttr(key, value); err != nil {
			return err
		}
		resigned, err = obj.SignAndEncode(kp, crand.Reader)
		if err != nil {
			return errors.Wrap(err, "failed to re-sign envelope")
		}
	}

	fmt.Printf("%X\n", resigned)

	if id := c.String("id"); id != "" {
		if err := env.store.SaveEnvelope(&persistence.StoredEnvelope{
			ID:        id,
			MsgType:   msgType.Byte(),
			Raw:       resigned,
			CreatedAt: time.Now().Unix(),
		}); err != nil {
			return errors.Wrapf(err, "failed to update envelope %s", id)
		}
	}
	return nil
}

func runList(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	envelopes, err := env.store.ListEnvelopes()
	if err != nil {
		return errors.Wrap(err, "failed to list envelopes")
	}
	for _, e := range envelopes {
		msgType, err := kvobject.DecodeMsgType(e.MsgType)
		typeName := "invalid"
		if err == nil {
			typeName = msgType.String()
		}
		fmt.Printf("%s\t%s\t%d bytes\n", e.ID, typeName, len(e.Raw))
	}
	return nil
}
