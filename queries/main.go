package queries

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gitlab.com/cloverpay-platform/affiliate_api/config"
)

// Repo holds the database connections used by the engine.
// Conn is the writer connection, ConnReader points at the read replica.
type Repo struct {
	Conn            *gorm.DB
	ConnReader      *gorm.DB
	ConnReaderAdmin *gorm.DB
}

// NewRepo connects to the configured database cluster
func NewRepo(cfg config.DatabaseClusterConfig) (*Repo, error) {
	writer, err := connect(cfg.Writer)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database [WRITER]: %w", err)
	}
	reader, err := connect(cfg.Reader)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database [READER]: %w", err)
	}
	return &Repo{
		Conn:            writer,
		ConnReader:      reader,
		ConnReaderAdmin: reader,
	}, nil
}

func connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode,
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
