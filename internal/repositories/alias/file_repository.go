package alias

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/metrics"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/models"
	"github.com/Muahhidun/poster-helper-bot-sub000/pkg/normalize"
)

// FileRepository is a tab-delimited flat-file alias store for deployments
// without Postgres. Writes append a row per commit; Load compacts the file
// back to one row per (tenant_id, phrase, entity_kind), keeping the last
// written mapping.
type FileRepository struct {
	path   string
	logger ectologger.Logger
	mu     sync.Mutex
}

func NewFileRepository(path string, logger ectologger.Logger) *FileRepository {
	return &FileRepository{
		path:   path,
		logger: logger,
	}
}

// Load returns all aliases for a tenant and entity kind.
func (r *FileRepository) Load(ctx context.Context, tenantID string, kind models.EntityKind) ([]models.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, compacted, err := r.readAll()
	if err != nil {
		return nil, err
	}
	if compacted {
		if err := r.rewrite(all); err != nil {
			return nil, err
		}
	}

	aliases := make([]models.Alias, 0)
	for _, a := range all {
		if a.TenantID == tenantID && a.EntityKind == kind {
			aliases = append(aliases, a)
		}
	}
	return aliases, nil
}

// Add appends an alias row. The append-only format keeps concurrent commits
// cheap; duplicate keys are resolved at Load time, last write wins.
func (r *FileRepository) Add(ctx context.Context, alias models.Alias) (AddOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alias.Phrase = normalize.Phrase(alias.Phrase)
	now := time.Now().UTC()
	if alias.CreatedAt.IsZero() {
		alias.CreatedAt = now
	}
	alias.UpdatedAt = now

	all, _, err := r.readAll()
	if err != nil {
		return "", err
	}
	outcome := AddOutcomeCreated
	for _, existing := range all {
		if existing.TenantID == alias.TenantID && existing.Phrase == alias.Phrase && existing.EntityKind == alias.EntityKind {
			if existing.EntityID == alias.EntityID {
				return AddOutcomeAlreadyExists, nil
			}
			outcome = AddOutcomeUpdated
			break
		}
	}

	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "failed to open alias file")
	}
	defer file.Close()

	if _, err := file.WriteString(encodeLine(alias)); err != nil {
		return "", errors.Wrap(err, "failed to append alias")
	}
	return outcome, nil
}

// BulkLoad imports seed records with the same skip rules as the Postgres
// store.
func (r *FileRepository) BulkLoad(ctx context.Context, tenantID string, records []models.AliasRecord, known func(int64) bool) (int, error) {
	imported := 0
	for _, record := range records {
		phrase := normalize.Phrase(record.Phrase)
		if phrase == "" || record.EntityID <= 0 || !record.EntityKind.Valid() {
			metrics.RecordImportSkip(tenantID, "malformed")
			r.logger.WithFields(map[string]any{"phrase": record.Phrase, "entity_id": record.EntityID}).Warn("Skipping malformed alias record")
			continue
		}
		if known != nil && !known(record.EntityID) {
			metrics.RecordImportSkip(tenantID, "stale_entity")
			r.logger.WithFields(map[string]any{"phrase": phrase, "entity_id": record.EntityID}).Warn("Skipping alias record referencing unknown entity")
			continue
		}

		provenance := record.Provenance
		if provenance == "" {
			provenance = models.ProvenanceSeedImport
		}

		if _, err := r.Add(ctx, models.Alias{
			TenantID:   tenantID,
			Phrase:     phrase,
			EntityID:   record.EntityID,
			EntityName: record.EntityName,
			EntityKind: record.EntityKind,
			Provenance: provenance,
		}); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// readAll parses the whole file, keeping the last row per key. The second
// return reports whether duplicate or malformed rows were dropped, meaning
// the file should be compacted.
func (r *FileRepository) readAll() ([]models.Alias, bool, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to open alias file")
	}
	defer file.Close()

	type key struct {
		tenantID string
		phrase   string
		kind     models.EntityKind
	}
	byKey := make(map[key]int)
	var aliases []models.Alias
	dropped := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		alias, err := decodeLine(line)
		if err != nil {
			r.logger.WithError(err).Warn("Skipping malformed alias file row")
			dropped = true
			continue
		}
		k := key{tenantID: alias.TenantID, phrase: alias.Phrase, kind: alias.EntityKind}
		if i, ok := byKey[k]; ok {
			aliases[i] = alias
			dropped = true
			continue
		}
		byKey[k] = len(aliases)
		aliases = append(aliases, alias)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, errors.Wrap(err, "failed to read alias file")
	}
	return aliases, dropped, nil
}

func (r *FileRepository) rewrite(aliases []models.Alias) error {
	tmp := r.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to create alias file")
	}
	writer := bufio.NewWriter(file)
	for _, alias := range aliases {
		if _, err := writer.WriteString(encodeLine(alias)); err != nil {
			file.Close()
			return errors.Wrap(err, "failed to write alias file")
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to flush alias file")
	}
	if err := file.Close(); err != nil {
		return errors.Wrap(err, "failed to close alias file")
	}
	return errors.Wrap(os.Rename(tmp, r.path), "failed to replace alias file")
}

func encodeLine(alias models.Alias) string {
	return fmt.Sprintf("%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
		alias.TenantID,
		alias.Phrase,
		alias.EntityID,
		alias.EntityName,
		alias.EntityKind,
		alias.Provenance,
		alias.CreatedAt.UTC().Format(time.RFC3339),
		alias.UpdatedAt.UTC().Format(time.RFC3339),
	)
}

func decodeLine(line string) (models.Alias, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 8 {
		return models.Alias{}, fmt.Errorf("expected 8 fields, got %d", len(fields))
	}
	entityID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return models.Alias{}, fmt.Errorf("bad entity id %q", fields[2])
	}
	kind := models.EntityKind(fields[4])
	if !kind.Valid() {
		return models.Alias{}, fmt.Errorf("bad entity kind %q", fields[4])
	}
	createdAt, err := time.Parse(time.RFC3339, fields[6])
	if err != nil {
		return models.Alias{}, fmt.Errorf("bad created_at %q", fields[6])
	}
	updatedAt, err := time.Parse(time.RFC3339, fields[7])
	if err != nil {
		return models.Alias{}, fmt.Errorf("bad updated_at %q", fields[7])
	}
	return models.Alias{
		TenantID:   fields[0],
		Phrase:     fields[1],
		EntityID:   entityID,
		EntityName: fields[3],
		EntityKind: kind,
		Provenance: fields[5],
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}
