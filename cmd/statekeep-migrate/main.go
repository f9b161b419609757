package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/config"
	"github.com/cuemby/statekeep/pkg/migrate"
	"github.com/cuemby/statekeep/pkg/types"
)

var (
	snapshotDir = flag.String("snapshot-dir", "./statekeep-data", "Directory holding one <instanceId>.json file per instance")
	configPath  = flag.String("config", "", "Path to the candidate GameConfig YAML file (required)")
	dryRun      = flag.Bool("dry-run", false, "Report what migration would change without writing anything")
	backupDir   = flag.String("backup-dir", "", "Directory to copy every instance file into before migrating (default: <snapshot-dir>/backup)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags)
	log.Println("statekeep migration tool")
	log.Println("=========================")

	if *configPath == "" {
		log.Fatal("--config is required")
	}

	gameCfg, err := loadGameConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	registry := algorithm.NewRegistry()
	if err := config.Validate(gameCfg, registry); err != nil {
		log.Fatalf("candidate config is invalid: %v", err)
	}

	files, err := instanceFiles(*snapshotDir)
	if err != nil {
		log.Fatalf("listing snapshot directory: %v", err)
	}
	if len(files) == 0 {
		log.Println("no instance files found — nothing to migrate")
		return
	}
	log.Printf("found %d instance file(s) in %s", len(files), *snapshotDir)
	log.Printf("dry run: %v", *dryRun)

	if !*dryRun {
		dest := *backupDir
		if dest == "" {
			dest = filepath.Join(*snapshotDir, "backup")
		}
		log.Printf("backing up instance files to %s", dest)
		if err := backupFiles(files, dest); err != nil {
			log.Fatalf("backup failed: %v", err)
		}
		log.Println("backup complete")
	}

	var totalWarnings int
	for _, path := range files {
		warnings, err := migrateOne(path, gameCfg, *dryRun)
		if err != nil {
			log.Fatalf("migrating %s: %v", path, err)
		}
		totalWarnings += warnings
	}

	if *dryRun {
		log.Printf("dry run complete: %d total warning(s) across %d instance(s)", totalWarnings, len(files))
		log.Println("run without --dry-run to apply these changes")
		return
	}
	log.Printf("migration complete: %d total warning(s) applied across %d instance(s)", totalWarnings, len(files))
}

func instanceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func backupFiles(files []string, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	for _, src := range files {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}
		dst := filepath.Join(dest, filepath.Base(src))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
	}
	return nil
}

// migrateOne loads one instance file, runs it through the migrator, logs
// every warning, and (unless dryRun) writes the migrated state back.
func migrateOne(path string, cfg *types.GameConfig, dryRun bool) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var env types.SnapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	state := types.FromSnapshotEnvelope(&env, env.CacheBound)
	migrated, report := migrate.Run(state, cfg)

	if !report.Modified() {
		log.Printf("%s: no changes needed", env.InstanceID)
		return 0, nil
	}

	for _, w := range report.Warnings {
		log.Printf("%s: [%s] player=%s entity=%s: %s", env.InstanceID, w.Code, w.PlayerID, w.EntityID, w.Detail)
	}

	if dryRun {
		return len(report.Warnings), nil
	}

	outEnv := migrated.ToSnapshotEnvelope(env.CacheBound)
	out, err := json.MarshalIndent(outEnv, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return 0, fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("rename temp file: %w", err)
	}
	return len(report.Warnings), nil
}

func loadGameConfig(path string) (*types.GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg types.GameConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
