package config

import "time"

// NotifyConfig groups the settings of the three outbound notification
// channels.  Each channel is switched off when its essential setting is
// empty, so a development machine can run without a broker, AWS or SMTP.
type NotifyConfig struct {
	AMQPURL    string // RabbitMQ URL for booking snapshots; empty disables the queue
	QueueName  string
	AWSRegion  string
	SNSTopic   string // topic ARN, or a bare name resolved with CreateTopic
	SMTPHost   string // empty disables student email
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	MailFrom   string
	Timeout    time.Duration // upper bound for one delivery attempt
	BreakerTTL time.Duration // how long an open breaker stays open
	BookingLog string        // file the consumer appends snapshots to
}

// LoadNotifyConfig reads the notification settings.  RABBITMQ_URL falls
// back to AMQP_URL like the consumer does.
func LoadNotifyConfig() NotifyConfig {
	amqpURL := envStr("RABBITMQ_URL", envStr("AMQP_URL", ""))
	return NotifyConfig{
		AMQPURL:    amqpURL,
		QueueName:  envStr("BOOKING_QUEUE", "booking.created"),
		AWSRegion:  envStr("AWS_REGION", "us-east-1"),
		SNSTopic:   envStr("SNS_TOPIC", ""),
		SMTPHost:   envStr("SMTP_HOST", ""),
		SMTPPort:   envInt("SMTP_PORT", 587),
		SMTPUser:   envStr("SMTP_USER", ""),
		SMTPPass:   envStr("SMTP_PASSWORD", ""),
		MailFrom:   envStr("MAIL_FROM", envStr("SMTP_USER", "")),
		Timeout:    envDur("NOTIFY_TIMEOUT", 5*time.Second),
		BreakerTTL: envDur("NOTIFY_BREAKER_TIMEOUT", 30*time.Second),
		BookingLog: envStr("BOOKING_LOG_PATH", "logs/booking.log"),
	}
}

// ConsumerEnabled reports whether serve should also run the booking
// snapshot consumer in-process.
func ConsumerEnabled() bool { return envBool("BOOKING_CONSUMER_ENABLED", false) }

// StorageConfig configures accommodation image uploads to S3.
type StorageConfig struct {
	Bucket        string // empty disables uploads
	Region        string
	PublicBaseURL string // defaults to https://<bucket>.s3.amazonaws.com
	MaxBytes      int64
}

// LoadStorageConfig reads the S3 settings.
func LoadStorageConfig() StorageConfig {
	bucket := envStr("AWS_S3_BUCKET", "")
	base := envStr("MEDIA_BASE_URL", "")
	if base == "" && bucket != "" {
		base = "https://" + bucket + ".s3.amazonaws.com"
	}
	return StorageConfig{
		Bucket:        bucket,
		Region:        envStr("AWS_REGION", "us-east-1"),
		PublicBaseURL: base,
		MaxBytes:      int64(envInt("UPLOAD_MAX_BYTES", 5<<20)),
	}
}
