// Command combatlog parses a folder of game chat logs into per-fight CSV
// files, carrying pilot and affiliation knowledge across runs in SQLite.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/solfleet/combatlog/internal/config"
	"github.com/solfleet/combatlog/internal/export"
	"github.com/solfleet/combatlog/internal/sde"
	"github.com/solfleet/combatlog/internal/store"
	"github.com/solfleet/combatlog/pkg/affiliation"
	"github.com/solfleet/combatlog/pkg/combat"
	"github.com/solfleet/combatlog/pkg/lookup"
	"github.com/solfleet/combatlog/pkg/pipeline"
	"github.com/solfleet/combatlog/pkg/roster"
)

const pilotCacheKind = "pilot_affiliation"

func main() {
	if err := run(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	st, err := store.NewSQLiteStoreWithDSN(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	names, err := sde.LoadTypeNames(cfg.SDEPath)
	if err != nil {
		return fmt.Errorf("load type names: %w", err)
	}
	dict := roster.NewDictionary(names)
	log.Info("reference dictionary loaded", "names", dict.Len())

	kinds, err := roster.NewKindClassifier(dict)
	if err != nil {
		return fmt.Errorf("build kind classifier: %w", err)
	}
	skip := func(name string) bool {
		return kinds.LooksLikeDrone(name) || kinds.LooksLikeCharge(name)
	}

	persistent, err := loadPilots(st)
	if err != nil {
		return fmt.Errorf("load pilots: %w", err)
	}
	affLog, err := loadAffiliations(st, store.SourceLog)
	if err != nil {
		return fmt.Errorf("load log affiliations: %w", err)
	}
	affLookup, err := loadAffiliations(st, store.SourceLookup)
	if err != nil {
		return fmt.Errorf("load lookup affiliations: %w", err)
	}

	var client *lookup.Client
	resolver := &affiliation.Resolver{
		Persistent: persistent,
		AffLog:     affLog,
		AffLookup:  affLookup,
		SkipName:   skip,
		Log:        log,
	}
	if cfg.LookupEnabled {
		opts := []lookup.Option{
			lookup.WithLogger(log),
			lookup.WithDelay(time.Duration(cfg.LookupDelayMS) * time.Millisecond),
		}
		if cfg.LookupBaseURL != "" {
			opts = append(opts, lookup.WithBaseURL(cfg.LookupBaseURL))
		}
		client = lookup.New(opts...)
		if err := seedPilotCache(st, client); err != nil {
			return fmt.Errorf("seed lookup cache: %w", err)
		}
		resolver.External = client
	}

	runner := &pipeline.Runner{
		Classifier: &combat.Classifier{ItemNames: dict},
		Kinds:      kinds,
		Resolver:   resolver,
		Gap:        time.Duration(cfg.GapMinutes) * time.Minute,
		Log:        log,
	}

	files, err := pipeline.ReadFolder(cfg.LogFolder)
	if err != nil {
		return fmt.Errorf("read log folder: %w", err)
	}
	if len(files) == 0 {
		log.Warn("no log files found", "folder", cfg.LogFolder)
		return nil
	}

	started := time.Now()
	res, err := runner.Run(files)
	if err != nil {
		return err
	}

	for _, fight := range res.Fights {
		dir := filepath.Join(cfg.OutFolder, fight.ID)
		if err := export.WriteFight(dir, fight.Events, fight.Others); err != nil {
			return fmt.Errorf("write fight %s: %w", fight.ID, err)
		}
	}

	if err := persist(st, resolver, client, res, cfg.LogFolder, started); err != nil {
		return fmt.Errorf("persist: %w", err)
	}

	log.Info("run finished", "run_id", res.RunID,
		"fights", len(res.Fights), "events", res.Events,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func newLogger(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}))
}

func loadPilots(st store.Storer) (affiliation.PilotDB, error) {
	records, err := st.LoadPilots()
	if err != nil {
		return nil, err
	}
	db := affiliation.PilotDB{}
	for _, rec := range records {
		db.Put(rec.Pilot, affiliation.PilotInfo{Corp: rec.Corp, Alliance: rec.Alliance})
	}
	return db, nil
}

func loadAffiliations(st store.Storer, source store.AffiliationSource) (affiliation.DB, error) {
	records, err := st.LoadAffiliations(source)
	if err != nil {
		return nil, err
	}
	db := affiliation.DB{}
	for _, rec := range records {
		db.Update(rec.Corp, rec.Alliance, time.Unix(rec.LastSeen, 0))
	}
	return db, nil
}

func seedPilotCache(st store.Storer, client *lookup.Client) error {
	entries, err := st.LoadCache(pilotCacheKind)
	if err != nil {
		return err
	}
	pilots := make(map[string]lookup.Affiliation, len(entries))
	for _, e := range entries {
		corp, alliance, _ := strings.Cut(e.Value, "\t")
		pilots[e.Key] = lookup.Affiliation{Corp: corp, Alliance: alliance}
	}
	client.SeedPilots(pilots)
	return nil
}

func persist(st store.Storer, resolver *affiliation.Resolver, client *lookup.Client,
	res *pipeline.Result, logFolder string, started time.Time) error {

	now := time.Now().Unix()

	var pilots []*store.PilotRecord
	for pilot, info := range resolver.Persistent {
		pilots = append(pilots, &store.PilotRecord{
			Pilot:     pilot,
			Corp:      info.Corp,
			Alliance:  info.Alliance,
			FirstSeen: now,
			LastSeen:  now,
		})
	}
	if err := st.SavePilots(pilots); err != nil {
		return err
	}

	if err := saveAffiliations(st, store.SourceLog, resolver.AffLog); err != nil {
		return err
	}
	if err := saveAffiliations(st, store.SourceLookup, resolver.AffLookup); err != nil {
		return err
	}

	if client != nil {
		var entries []*store.CacheEntry
		for key, aff := range client.PilotCache() {
			entries = append(entries, &store.CacheEntry{
				Kind:      pilotCacheKind,
				Key:       key,
				Value:     aff.Corp + "\t" + aff.Alliance,
				UpdatedAt: now,
			})
		}
		if err := st.SaveCache(entries); err != nil {
			return err
		}
	}

	return st.RecordRun(&store.Run{
		ID:         res.RunID,
		StartedAt:  started.Unix(),
		FinishedAt: time.Now().Unix(),
		LogFolder:  logFolder,
		Files:      res.Files,
		Events:     res.Events,
		Fights:     len(res.Fights),
	})
}

func saveAffiliations(st store.Storer, source store.AffiliationSource, db affiliation.DB) error {
	var records []*store.AffiliationRecord
	for corp, rec := range db {
		records = append(records, &store.AffiliationRecord{
			Source:    source,
			Corp:      corp,
			Alliance:  rec.Alliance,
			FirstSeen: rec.FirstSeen.Unix(),
			LastSeen:  rec.LastSeen.Unix(),
		})
	}
	return st.SaveAffiliations(source, records)
}
