package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/uniworld-consultancy/case-service/internal/events"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF\n")

func newTestDocumentService() (DocumentService, *mockRepository, *mockFileStorage, *events.MockEventPublisher) {
	repo := newMockRepository()
	repo.addUser("client-1", "Amina Rahman", "amina@example.com", models.RoleClient)
	repo.addUser("client-2", "Tariq Hossain", "tariq@example.com", models.RoleClient)
	repo.addUser("staff-1", "Sadia Islam", "sadia@uniworld.example", models.RoleStaff)

	storage := newMockFileStorage()
	publisher := events.NewMockEventPublisher(newTestLogger())
	service := NewDocumentService(repo, nil, newTestLogger(), validator.New(), storage, publisher)
	return service, repo, storage, publisher
}

func seedApplication(t *testing.T, repo *mockRepository, clientID string) *models.Application {
	t.Helper()

	app := &models.Application{
		ApplicationID:      "APP-202508-1234",
		ClientID:           clientID,
		Status:             models.StatusSubmitted,
		VisaType:           models.VisaStudent,
		DestinationCountry: "Canada",
		Version:            1,
	}
	if err := repo.Applications().Create(context.Background(), nil, app); err != nil {
		t.Fatalf("Failed to seed application: %v", err)
	}
	return app
}

func passportUpload(applicationID uint, fileName string) *UploadDocumentRequest {
	return &UploadDocumentRequest{
		ApplicationID: applicationID,
		DocumentType:  models.DocPassport,
		FileName:      fileName,
		SizeBytes:     1,
	}
}

func TestDocumentUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a pdf and lands unverified", func(t *testing.T) {
		service, repo, _, publisher := newTestDocumentService()
		app := seedApplication(t, repo, "client-1")

		resp, err := service.Upload(ctx, passportUpload(app.ID, "passport.pdf"), bytes.NewReader(pdfContent), "client-1")
		if err != nil {
			t.Fatalf("Upload failed: %v", err)
		}

		if resp.Verified {
			t.Error("Fresh uploads must not be verified")
		}
		if resp.ContentType != "application/pdf" {
			t.Errorf("Expected application/pdf, got %s", resp.ContentType)
		}
		if resp.SizeBytes != int64(len(pdfContent)) {
			t.Errorf("Expected size %d, got %d", len(pdfContent), resp.SizeBytes)
		}
		if resp.UploadedBy != "client-1" {
			t.Errorf("Expected uploader client-1, got %s", resp.UploadedBy)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventDocumentUploaded {
			t.Errorf("Expected one %s event, got %d", events.EventDocumentUploaded, len(published))
		}
	})

	t.Run("rejects files over the size ceiling", func(t *testing.T) {
		service, repo, _, _ := newTestDocumentService()
		app := seedApplication(t, repo, "client-1")

		oversized := bytes.Repeat([]byte("a"), validator.MaxDocumentSize+1)
		if _, err := service.Upload(ctx, passportUpload(app.ID, "statement.pdf"), bytes.NewReader(oversized), "client-1"); err == nil {
			t.Fatal("Expected oversized upload to be rejected")
		}
	})

	t.Run("rejects a disallowed extension", func(t *testing.T) {
		service, repo, _, _ := newTestDocumentService()
		app := seedApplication(t, repo, "client-1")

		if _, err := service.Upload(ctx, passportUpload(app.ID, "tool.exe"), bytes.NewReader(pdfContent), "client-1"); err == nil {
			t.Fatal("Expected .exe upload to be rejected")
		}
	})

	t.Run("rejects content that does not match an allowed type", func(t *testing.T) {
		service, repo, _, _ := newTestDocumentService()
		app := seedApplication(t, repo, "client-1")

		// ELF magic bytes renamed to .pdf
		executable := append([]byte{0x7f, 'E', 'L', 'F'}, bytes.Repeat([]byte{0}, 64)...)
		if _, err := service.Upload(ctx, passportUpload(app.ID, "passport.pdf"), bytes.NewReader(executable), "client-1"); err == nil {
			t.Fatal("Expected renamed executable to be rejected")
		}
	})

	t.Run("other client cannot upload to the case", func(t *testing.T) {
		service, repo, _, _ := newTestDocumentService()
		app := seedApplication(t, repo, "client-1")

		_, err := service.Upload(ctx, passportUpload(app.ID, "passport.pdf"), bytes.NewReader(pdfContent), "client-2")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})
}

func TestDocumentVerify(t *testing.T) {
	ctx := context.Background()
	service, repo, _, publisher := newTestDocumentService()
	app := seedApplication(t, repo, "client-1")

	resp, err := service.Upload(ctx, passportUpload(app.ID, "passport.pdf"), bytes.NewReader(pdfContent), "client-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	publisher.ClearEvents()

	t.Run("client cannot verify", func(t *testing.T) {
		_, err := service.Verify(ctx, resp.ID, "", "client-1")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("staff verify stamps the document", func(t *testing.T) {
		verified, err := service.Verify(ctx, resp.ID, "Checked against passport scan", "staff-1")
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if !verified.Verified {
			t.Error("Document should be verified")
		}
		if verified.VerifiedBy == nil || *verified.VerifiedBy != "staff-1" {
			t.Error("VerifiedBy should record the staff member")
		}
		if verified.VerificationNotes != "Checked against passport scan" {
			t.Errorf("VerificationNotes not stored, got %q", verified.VerificationNotes)
		}
		if verified.VerifiedAt == nil {
			t.Error("VerifiedAt should be set")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventDocumentVerified {
			t.Fatalf("Expected one %s event, got %d", events.EventDocumentVerified, len(published))
		}
	})

	t.Run("second verify is a no-op", func(t *testing.T) {
		publisher.ClearEvents()

		verified, err := service.Verify(ctx, resp.ID, "", "staff-1")
		if err != nil {
			t.Fatalf("Repeat verify failed: %v", err)
		}
		if !verified.Verified {
			t.Error("Document should stay verified")
		}
		if len(publisher.GetPublishedEvents()) != 0 {
			t.Error("Repeat verify should not publish events")
		}
	})
}

func TestDocumentDownloadAndDelete(t *testing.T) {
	ctx := context.Background()
	service, repo, storage, _ := newTestDocumentService()
	app := seedApplication(t, repo, "client-1")

	resp, err := service.Upload(ctx, passportUpload(app.ID, "passport.pdf"), bytes.NewReader(pdfContent), "client-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	t.Run("owner downloads the original bytes", func(t *testing.T) {
		download, err := service.Download(ctx, resp.ID, "client-1")
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		defer download.Content.Close()

		data, err := io.ReadAll(download.Content)
		if err != nil {
			t.Fatalf("Failed to read download: %v", err)
		}
		if !bytes.Equal(data, pdfContent) {
			t.Error("Downloaded bytes do not match the upload")
		}
		if download.FileName != "passport.pdf" {
			t.Errorf("Expected passport.pdf, got %s", download.FileName)
		}
	})

	t.Run("other client cannot download", func(t *testing.T) {
		_, err := service.Download(ctx, resp.ID, "client-2")
		if !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("list is scoped to case participants", func(t *testing.T) {
		docs, err := service.ListByApplication(ctx, app.ID, "client-1")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(docs) != 1 {
			t.Errorf("Expected 1 document, got %d", len(docs))
		}

		if _, err := service.ListByApplication(ctx, app.ID, "client-2"); !IsPermissionError(err) {
			t.Errorf("Expected permission error, got %v", err)
		}
	})

	t.Run("delete removes record and file", func(t *testing.T) {
		if err := service.Delete(ctx, resp.ID, "client-1"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if _, err := service.GetByID(ctx, resp.ID, "client-1"); err == nil {
			t.Error("Expected document to be gone")
		}

		storage.mu.Lock()
		remaining := len(storage.files)
		storage.mu.Unlock()
		if remaining != 0 {
			t.Errorf("Expected stored file to be removed, %d left", remaining)
		}
	})
}

func TestVerifiedDocumentDeleteIsStaffOnly(t *testing.T) {
	ctx := context.Background()
	service, repo, _, _ := newTestDocumentService()
	app := seedApplication(t, repo, "client-1")

	resp, err := service.Upload(ctx, passportUpload(app.ID, "passport.pdf"), bytes.NewReader(pdfContent), "client-1")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := service.Verify(ctx, resp.ID, "", "staff-1"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if err := service.Delete(ctx, resp.ID, "client-1"); !IsPermissionError(err) {
		t.Errorf("Expected permission error deleting a verified document, got %v", err)
	}
	if err := service.Delete(ctx, resp.ID, "staff-1"); err != nil {
		t.Errorf("Staff delete failed: %v", err)
	}
}
