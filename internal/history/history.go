package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sahilm/fuzzy"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InMemory opens a private database that lives as long as the manager.
const InMemory = ":memory:"

// searchWindow bounds how many recent entries a fuzzy search ranks.
const searchWindow = 1000

type HistoryManager struct {
	db *gorm.DB
}

type HistoryEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Command    string
	Directory  string
	ExitCode   sql.NullInt32
	Outcome    string `gorm:"index"`
	Error      string
	DurationMs int64
}

// Finish carries the result of a command for FinishCommand.
type Finish struct {
	ExitCode *int
	Outcome  string
	Error    string
	Duration time.Duration
}

const (
	historySchemaVersion = 2
)

func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	inMemory := dbFilePath == InMemory

	dbFileExists := !inMemory
	if !inMemory {
		if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
			dbFileExists = false
		} else if err != nil {
			return nil, fmt.Errorf("failed to check history db: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	if inMemory {
		// every connection to :memory: is a separate database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	versionPath := schemaVersionPath(dbFilePath)
	if inMemory || needsMigration(dbFileExists, db, versionPath) {
		if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
			return nil, fmt.Errorf("failed to migrate history schema: %w", err)
		}
		if !inMemory {
			if err := writeSchemaVersion(versionPath, historySchemaVersion); err != nil {
				return nil, fmt.Errorf("failed to write history schema version: %w", err)
			}
		}
	}

	return &HistoryManager{
		db: db,
	}, nil
}

func needsMigration(dbFileExists bool, db *gorm.DB, versionPath string) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := schemaVersionMatches(versionPath)
	if err != nil || !versionMatches {
		return true
	}

	// A marker without the table means the db was replaced or emptied by hand.
	return !db.Migrator().HasTable(&HistoryEntry{})
}

func writeSchemaVersion(versionPath string, version int) error {
	return os.WriteFile(versionPath, []byte(strconv.Itoa(version)), 0644)
}

func schemaVersionMatches(versionPath string) (bool, error) {
	data, err := os.ReadFile(versionPath)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != historySchemaVersion {
		return false, fmt.Errorf("history schema version mismatch: got %d, want %d", version, historySchemaVersion)
	}
	return true, nil
}

func schemaVersionPath(dbFilePath string) string {
	return filepath.Join(filepath.Dir(dbFilePath), "history_schema_version")
}

// Close releases the underlying database connection.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (historyManager *HistoryManager) StartCommand(command string, directory string) (*HistoryEntry, error) {
	entry := HistoryEntry{
		Command:   command,
		Directory: directory,
	}

	result := historyManager.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

func (historyManager *HistoryManager) FinishCommand(entry *HistoryEntry, finish Finish) (*HistoryEntry, error) {
	if finish.ExitCode != nil {
		entry.ExitCode = sql.NullInt32{Int32: int32(*finish.ExitCode), Valid: true}
	}
	entry.Outcome = finish.Outcome
	entry.Error = finish.Error
	entry.DurationMs = finish.Duration.Milliseconds()

	result := historyManager.db.Save(entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// GetRecentEntries returns up to limit entries, oldest first.
func (historyManager *HistoryManager) GetRecentEntries(directory string, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	var db = historyManager.db
	if directory != "" {
		db = db.Where("directory = ?", directory)
	}
	result := db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	slices.Reverse(entries)
	return entries, nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&HistoryEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}

	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	result := historyManager.db.Exec("DELETE FROM history_entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}

type entrySource []HistoryEntry

func (s entrySource) String(i int) string { return s[i].Command }
func (s entrySource) Len() int            { return len(s) }

// SearchHistory ranks the most recent entries by how well their command
// fuzzy-matches query. Ties keep the most recent entry first. An empty
// query returns the most recent entries.
func (historyManager *HistoryManager) SearchHistory(query string, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	result := historyManager.db.
		Order("created_at desc").
		Order("id desc").
		Limit(searchWindow).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	if strings.TrimSpace(query) == "" {
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}

	matches := fuzzy.FindFrom(query, entrySource(entries))
	found := make([]HistoryEntry, 0, len(matches))
	for _, match := range matches {
		found = append(found, entries[match.Index])
		if limit > 0 && len(found) == limit {
			break
		}
	}
	return found, nil
}
