// Package sigmacli is the command line front end: it generates key pairs and
// proves or verifies knowledge of their secret with the Schnorr protocol.
package sigmacli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/drand/kyber/util/random"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/drand/sigma"
	"github.com/drand/sigma/crypto"
	"github.com/drand/sigma/entropy"
	"github.com/drand/sigma/fs"
	"github.com/drand/sigma/hashes"
	"github.com/drand/sigma/key"
	"github.com/drand/sigma/log"
	"github.com/drand/sigma/metrics"
	"github.com/drand/sigma/nizk"
	"github.com/drand/sigma/proofstore"
	"github.com/drand/sigma/proofstore/boltdb"
	"github.com/drand/sigma/protocols/schnorr"
)

// default output of the commands
var output io.Writer = os.Stdout

// Automatically set through -ldflags
// Example: go install -ldflags "-X github.com/drand/sigma/cmd/sigma-cli.version=`git describe --tags`"
var (
	version   = "master"
	gitCommit = "none"
	buildDate = "unknown"
)

const defaultFolderName = ".sigma"

// DBFolderName is the folder under the config folder holding the proof store.
const DBFolderName = "db"

// defaultMaxAttempts bounds the prove retry loop. Each attempt fails with
// probability at most one half, so this is never reached in practice.
const defaultMaxAttempts = 128

// DefaultConfigFolder is the folder used when none is given.
func DefaultConfigFolder() string {
	return path.Join(fs.HomeFolder(), defaultFolderName)
}

var folderFlag = &cli.StringFlag{
	Name:  "folder",
	Value: DefaultConfigFolder(),
	Usage: "Folder to keep the key pair and the proof database, with absolute path.",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "If set, verbosity is at the debug level",
}

var suiteFlag = &cli.StringFlag{
	Name:  "suite",
	Value: crypto.DefaultSuiteID,
	Usage: "Group of the key pair, one of " + strings.Join(crypto.ListSuites(), ", "),
}

var hashFlag = &cli.StringFlag{
	Name:  "hash",
	Value: string(nizk.DefaultHash),
	Usage: "Hash function deriving the challenges",
}

var policyFlag = &cli.StringFlag{
	Name:  "policy",
	Usage: "TOML file listing the allowed hash functions. The built-in policy is used when unset.",
}

var contextFlag = &cli.StringFlag{
	Name:  "context",
	Usage: "Application context the proof is bound to",
}

var shortFlag = &cli.BoolFlag{
	Name:  "short",
	Usage: "Produce or expect a short proof carrying the challenge instead of the commitment",
}

var storeFlag = &cli.BoolFlag{
	Name:  "store",
	Usage: "Save the proof in the proof database and print its id",
}

var attemptsFlag = &cli.IntFlag{
	Name:  "attempts",
	Value: defaultMaxAttempts,
	Usage: "Maximum number of prove attempts when the challenge is rejected",
}

var sourceFlag = &cli.StringFlag{
	Name:  "source",
	Usage: "Executable whose output is used as additional entropy for the commitments.",
}

var userEntropyOnlyFlag = &cli.BoolFlag{
	Name: "user-source-only",
	Usage: "Used with --source, only use the user's entropy for the commitments (not mixed with crypto/rand). " +
		"Every run is still salted so that no commitment repeats.",
}

var metricsFileFlag = &cli.StringFlag{
	Name:  "metrics-file",
	Usage: "Write the prove and verify counters to this file in the prometheus text format when the command ends.",
}

var publicFlag = &cli.StringFlag{
	Name:  "public",
	Usage: "Public key file of the prover. Defaults to the key pair of --folder.",
}

var proofFlag = &cli.StringFlag{
	Name:  "proof",
	Usage: "Hex encoded proof to verify",
}

var idFlag = &cli.StringFlag{
	Name:  "id",
	Usage: "Id of a stored proof to verify",
}

var appCommands = []*cli.Command{
	{
		Name:  "keygen",
		Usage: "Generate a long term key pair (sigma_id.private, sigma_id.public).",
		Flags: toArray(folderFlag, suiteFlag),
		Action: func(c *cli.Context) error {
			return keygenCmd(c)
		},
	},
	{
		Name:  "prove",
		Usage: "Prove knowledge of the private key and print the hex encoded proof.",
		Flags: toArray(folderFlag, hashFlag, policyFlag, contextFlag, shortFlag, storeFlag, attemptsFlag,
			sourceFlag, userEntropyOnlyFlag),
		Action: func(c *cli.Context) error {
			return proveCmd(c)
		},
	},
	{
		Name:  "verify",
		Usage: "Verify a proof given with --proof, or stored under --id.",
		Flags: toArray(folderFlag, hashFlag, policyFlag, contextFlag, shortFlag, publicFlag, proofFlag, idFlag),
		Action: func(c *cli.Context) error {
			return verifyCmd(c)
		},
	},
	{
		Name:  "list",
		Usage: "List the proofs of the proof database.",
		Flags: toArray(folderFlag),
		Action: func(c *cli.Context) error {
			return listCmd(c)
		},
	},
	{
		Name:  "hashes",
		Usage: "Show the supported hash functions and the ones allowed by the policy.",
		Flags: toArray(policyFlag),
		Action: func(c *cli.Context) error {
			return hashesCmd(c)
		},
	},
}

// CLI returns the sigma app
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "sigma"
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(output, "sigma %v (date %v, commit %v)\n", version, buildDate, gitCommit)
	}
	app.ExitErrHandler = func(context *cli.Context, err error) {
		// override to prevent default behavior of calling OS.exit(1),
		// when tests expect to be able to run multiple commands.
	}
	app.Version = version
	app.Usage = "non-interactive sigma protocol proofs"
	app.Commands = appCommands
	app.Flags = toArray(verboseFlag, metricsFileFlag)
	app.Before = func(c *cli.Context) error {
		c.Context = log.ToContext(c.Context, logger(c))
		return nil
	}
	app.After = writeMetrics
	return app
}

func writeMetrics(c *cli.Context) error {
	if !c.IsSet(metricsFileFlag.Name) {
		return nil
	}
	if err := prometheus.WriteToTextfile(c.String(metricsFileFlag.Name), metrics.Registry); err != nil {
		return xerrors.Errorf("writing metrics: %w", err)
	}
	return nil
}

func toArray(flags ...cli.Flag) []cli.Flag {
	return flags
}

func logger(c *cli.Context) log.Logger {
	level := log.InfoLevel
	if c.Bool(verboseFlag.Name) {
		level = log.DebugLevel
	}
	return log.New(nil, level, false)
}

func keygenCmd(c *cli.Context) error {
	suite, err := crypto.SuiteFromName(c.String(suiteFlag.Name))
	if err != nil {
		return err
	}
	store, err := key.NewFileStore(c.String(folderFlag.Name))
	if err != nil {
		return xerrors.Errorf("opening key store: %w", err)
	}
	if store.KeyPairExists() {
		return fmt.Errorf("keypair already present in %s, remove it before generating a new one", c.String(folderFlag.Name))
	}
	pair := key.NewKeyPair(suite, random.New())
	if err := store.SaveKeyPair(pair); err != nil {
		return xerrors.Errorf("saving key pair: %w", err)
	}

	var buff bytes.Buffer
	if err := toml.NewEncoder(&buff).Encode(pair.Public.TOML()); err != nil {
		return err
	}
	fmt.Fprintf(output, "Generated keys in %s\n", path.Join(c.String(folderFlag.Name), key.KeyFolderName))
	fmt.Fprintln(output, buff.String())
	return nil
}

// loadPolicy returns the hash policy of the flags and the hash function to
// use: --hash when given, else the policy default.
func loadPolicy(c *cli.Context) (hashes.Registry, hashes.ID, error) {
	hash := hashes.ID(c.String(hashFlag.Name))
	if !c.IsSet(policyFlag.Name) {
		return hashes.DefaultPolicy(), hash, nil
	}
	conf, err := hashes.LoadPolicy(c.String(policyFlag.Name))
	if err != nil {
		return nil, "", xerrors.Errorf("loading hash policy: %w", err)
	}
	if !c.IsSet(hashFlag.Name) {
		hash = conf.Default
	}
	return conf.Policy, hash, nil
}

// compiler returns the Schnorr compiler over suite configured by the flags.
func compiler(c *cli.Context, suite *crypto.Suite) (*nizk.Compiler, *schnorr.Protocol, error) {
	policy, hash, err := loadPolicy(c)
	if err != nil {
		return nil, nil, err
	}
	p, err := schnorr.New(suite)
	if err != nil {
		return nil, nil, err
	}
	opts := []nizk.Option{
		nizk.WithHash(hash),
		nizk.WithPolicy(policy),
		nizk.WithLogger(log.FromContextOrDefault(c.Context)),
	}
	if c.IsSet(sourceFlag.Name) {
		source := entropy.NewScriptReader(c.String(sourceFlag.Name))
		opts = append(opts, nizk.WithRandomness(entropy.NewStream(source, c.Bool(userEntropyOnlyFlag.Name))))
	} else if c.Bool(userEntropyOnlyFlag.Name) {
		return nil, nil, fmt.Errorf("--%s requires --%s", userEntropyOnlyFlag.Name, sourceFlag.Name)
	}
	cc, err := nizk.New(p, opts...)
	if err != nil {
		return nil, nil, xerrors.Errorf("configuring compiler: %w", err)
	}
	return cc, p, nil
}

func openStore(c *cli.Context) (proofstore.Store, error) {
	l := log.FromContextOrDefault(c.Context)
	folder, err := fs.CreateSecureFolder(path.Join(c.String(folderFlag.Name), DBFolderName))
	if err != nil {
		return nil, err
	}
	bolt, err := boltdb.NewBoltStore(c.Context, l, folder, nil)
	if err != nil {
		return nil, xerrors.Errorf("opening proof database: %w", err)
	}
	return proofstore.NewCachingStore(bolt, 64, l)
}

func proveCmd(c *cli.Context) error {
	store, err := key.NewFileStore(c.String(folderFlag.Name))
	if err != nil {
		return err
	}
	pair, err := store.LoadKeyPair()
	if err != nil {
		return xerrors.Errorf("loading key pair: %w", err)
	}
	cc, p, err := compiler(c, pair.Public.Suite)
	if err != nil {
		return err
	}
	witness := &schnorr.Witness{X: pair.Key}
	defer witness.Zeroize()
	statement := p.NewStatement(pair.Public.Key)
	appContext := []byte(c.String(contextFlag.Name))

	if c.Int(attemptsFlag.Name) < 1 {
		return fmt.Errorf("--%s must be at least 1", attemptsFlag.Name)
	}
	var proof interface{ MarshalBinary() ([]byte, error) }
	for attempt := 0; attempt < c.Int(attemptsFlag.Name); attempt++ {
		if c.Bool(shortFlag.Name) {
			proof, err = cc.ProveShort(witness, statement, appContext)
		} else {
			proof, err = cc.Prove(witness, statement, appContext)
		}
		if !nizk.IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return xerrors.Errorf("proving: %w", err)
	}
	buff, err := proof.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Fprintln(output, hex.EncodeToString(buff))

	if !c.Bool(storeFlag.Name) {
		return nil
	}
	sb, err := statement.MarshalBinary()
	if err != nil {
		return err
	}
	db, err := openStore(c)
	if err != nil {
		return err
	}
	defer db.Close(c.Context)
	id, err := db.Put(c.Context, &proofstore.Record{
		ProtocolID: p.ID().String(),
		Statement:  sb,
		Context:    appContext,
		Proof:      buff,
		Short:      c.Bool(shortFlag.Name),
	})
	if err != nil {
		return xerrors.Errorf("storing proof: %w", err)
	}
	fmt.Fprintf(output, "stored proof %s\n", id)
	return nil
}

func verifyCmd(c *cli.Context) error {
	if c.IsSet(idFlag.Name) {
		return verifyStoredCmd(c)
	}
	if !c.IsSet(proofFlag.Name) {
		return fmt.Errorf("verify expects --%s or --%s", proofFlag.Name, idFlag.Name)
	}
	pub, err := loadPublic(c)
	if err != nil {
		return err
	}
	cc, p, err := compiler(c, pub.Suite)
	if err != nil {
		return err
	}
	buff, err := hex.DecodeString(c.String(proofFlag.Name))
	if err != nil {
		return xerrors.Errorf("decoding proof: %w", sigma.Errorf(sigma.KindSerialization, "%v", err))
	}
	statement := p.NewStatement(pub.Key)
	appContext := []byte(c.String(contextFlag.Name))
	if c.Bool(shortFlag.Name) {
		err = cc.VerifyShortBytes(statement, buff, appContext)
	} else {
		err = cc.VerifyBytes(statement, buff, appContext)
	}
	return report(err)
}

func loadPublic(c *cli.Context) (*key.Public, error) {
	if c.IsSet(publicFlag.Name) {
		pub := new(key.Public)
		if err := key.Load(c.String(publicFlag.Name), pub); err != nil {
			return nil, xerrors.Errorf("loading public key: %w", err)
		}
		return pub, nil
	}
	store, err := key.NewFileStore(c.String(folderFlag.Name))
	if err != nil {
		return nil, err
	}
	return store.LoadPublic()
}

// verifyStoredCmd verifies a stored record against the statement and context
// stored with it.
func verifyStoredCmd(c *cli.Context) error {
	id, err := proofstore.ParseID(c.String(idFlag.Name))
	if err != nil {
		return err
	}
	db, err := openStore(c)
	if err != nil {
		return err
	}
	defer db.Close(c.Context)
	record, err := db.Get(c.Context, id)
	if err != nil {
		return xerrors.Errorf("loading proof %s: %w", id, err)
	}
	reg, err := registry(c)
	if err != nil {
		return err
	}
	cc, err := reg.Select(record.Proof)
	if err != nil {
		return report(err)
	}
	p, ok := cc.Protocol().(*schnorr.Protocol)
	if !ok || p.ID().String() != record.ProtocolID {
		return report(sigma.Errorf(sigma.KindSerialization, "record of %s holds a proof for %s", record.ProtocolID, cc.Protocol().ID()))
	}
	statement, err := p.ParseStatement(record.Statement)
	if err != nil {
		return report(err)
	}
	if record.Short {
		return report(cc.VerifyShortBytes(statement, record.Proof, record.Context))
	}
	return report(cc.VerifyBytes(statement, record.Proof, record.Context))
}

// registry returns the Schnorr compilers of every suite, configured by the
// flags.
func registry(c *cli.Context) (*nizk.Registry, error) {
	reg, err := nizk.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, name := range crypto.ListSuites() {
		suite, err := crypto.SuiteFromName(name)
		if err != nil {
			return nil, err
		}
		cc, _, err := compiler(c, suite)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(cc); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// report prints the outcome of a verification. Only a valid proof returns
// nil; an invalid one and malformed input are told apart.
func report(err error) error {
	switch {
	case err == nil:
		fmt.Fprintln(output, "proof valid")
		return nil
	case xerrors.Is(err, sigma.ErrVerificationFailed):
		fmt.Fprintln(output, "proof invalid")
		return err
	default:
		fmt.Fprintf(output, "proof malformed: %v\n", err)
		return err
	}
}

func listCmd(c *cli.Context) error {
	db, err := openStore(c)
	if err != nil {
		return err
	}
	defer db.Close(c.Context)
	return db.ForEach(c.Context, func(id proofstore.ID, r *proofstore.Record) error {
		fmt.Fprintf(output, "%s %s context=%q\n", id, r.ProtocolID, r.Context)
		return nil
	})
}

func hashesCmd(c *cli.Context) error {
	policy, _, err := loadPolicy(c)
	if err != nil {
		return err
	}
	for _, id := range hashes.Supported() {
		f, _ := hashes.Lookup(id)
		state := "denied"
		if policy.IsAllowed(id) {
			state = "allowed"
		}
		fmt.Fprintf(output, "%-12s %3d bytes  %s\n", id, f.DigestLen, state)
	}
	return nil
}
