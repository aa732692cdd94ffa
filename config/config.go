package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration parameters, read from environment variables.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"4747"`

	// Directory scanned for identification files (.mzid, .mzid.gz, .csv).
	// Peak-list files are expected next to the identification file unless
	// PEAKLIST_DIR is set.
	StagingDir  string `envconfig:"STAGING_DIR" default:"./staging"`
	PeakListDir string `envconfig:"PEAKLIST_DIR"`
	TempDir     string `envconfig:"TEMP_DIR" default:"/tmp/xlink-ingest"`

	// UNIMOD mass reference table (obo format), used to resolve modification
	// masses when the document only carries an accession.
	UnimodPath string `envconfig:"UNIMOD_PATH" default:"./unimod.obo"`

	// Rows accumulated in memory before a batch is flushed to the database.
	BatchSize int `envconfig:"BATCH_SIZE" default:"500"`

	// Concurrent uploads processed by the staging sweep. Each upload gets its
	// own writer; a single document is always parsed by one goroutine.
	MaxConcurrentUploads int `envconfig:"MAX_CONCURRENT_UPLOADS" default:"4"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"*/10 * * * *"`

	APISecretKey string `envconfig:"API_SECRET_KEY"`

	BackupS3Key    string `envconfig:"BACKUP_S3_KEY"`
	BackupS3Secret string `envconfig:"BACKUP_S3_SECRET"`
	BackupS3URL    string `envconfig:"BACKUP_S3_URL"`
	BackupS3Region string `envconfig:"BACKUP_S3_REGION"`
	BackupS3Bucket string `envconfig:"BACKUP_S3_BUCKET"`

	// Database dumps kept in the backup bucket before rotation deletes the
	// oldest ones.
	KeepBackups int `envconfig:"KEEP_BACKUPS" default:"4"`
}

// DSN returns the Data Source Name for the PostgreSQL connection.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
