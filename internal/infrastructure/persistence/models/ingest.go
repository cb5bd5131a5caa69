package models

import (
	"github.com/costiq/backend/internal/domain/ingest"
)

// UploadBatchModel is the persistence model for upload batch tracking.
// Warnings are stored as a JSON array so the model works on both
// postgres and sqlite.
type UploadBatchModel struct {
	BaseModel
	Filename    string              `gorm:"type:varchar(255);not null"`
	FileType    ingest.FileType     `gorm:"type:varchar(20);not null;index"`
	Status      ingest.UploadStatus `gorm:"type:varchar(20);not null;index"`
	RecordCount int                 `gorm:"not null;default:0"`
	Warnings    []string            `gorm:"type:text;serializer:json"`
}

// TableName returns the table name for GORM
func (UploadBatchModel) TableName() string {
	return "upload_batches"
}

// ToDomain converts the persistence model to a domain UploadBatch.
func (m *UploadBatchModel) ToDomain() *ingest.UploadBatch {
	return &ingest.UploadBatch{
		BaseEntity:  m.BaseModel.ToDomain(),
		Filename:    m.Filename,
		FileType:    m.FileType,
		Status:      m.Status,
		RecordCount: m.RecordCount,
		Warnings:    m.Warnings,
	}
}

// UploadBatchModelFromDomain converts a domain batch to its persistence model.
func UploadBatchModelFromDomain(b *ingest.UploadBatch) UploadBatchModel {
	var m UploadBatchModel
	m.FromDomainBaseEntity(b.BaseEntity)
	m.Filename = b.Filename
	m.FileType = b.FileType
	m.Status = b.Status
	m.RecordCount = b.RecordCount
	m.Warnings = b.Warnings
	return m
}
