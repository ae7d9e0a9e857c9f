package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/logging"
	sc "github.com/mvoronin/parceltrack/internal/server/config"
	"github.com/mvoronin/parceltrack/internal/server/models"
	"github.com/mvoronin/parceltrack/internal/server/policy"
	"github.com/mvoronin/parceltrack/internal/server/repositories/packages"
	"github.com/mvoronin/parceltrack/internal/server/repositories/proofs"
)

// Seams for the AWS SDK so tests can stub out presigning.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const presignValidity = 15 * time.Minute

// ProofService hands out presigned S3 URLs for delivery-proof photos.
// The photos never pass through the server: couriers upload straight to
// object storage and readers download the same way.
type ProofService struct {
	proofs   proofs.Repository
	packages packages.Repository
	config   *sc.Config
	logger   logging.Logger
}

func NewProofService(pr proofs.Repository, kr packages.Repository, config *sc.Config, logger logging.Logger) *ProofService {
	return &ProofService{
		proofs:   pr,
		packages: kr,
		config:   config,
		logger:   logger.With("module", "proof_service"),
	}
}

func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("proofs/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *ProofService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *ProofService) presignedPutURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &s.config.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *ProofService) presignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &s.config.S3Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// RequestUpload reserves a proof slot for the package and returns a
// presigned PUT URL for it. Allowed for the same actors that may update
// the package status.
func (s *ProofService) RequestUpload(ctx context.Context, actor models.Actor, packageID string) (*models.Proof, string, error) {

	pkg, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return nil, "", err
	}

	if !policy.CanUpdateStatus(actor, pkg) {
		return nil, "", common.ErrForbidden
	}

	key := randomStorageKey()
	url, err := s.presignedPutURL(ctx, key)
	if err != nil {
		return nil, "", err
	}

	proof, err := s.proofs.Create(ctx, &models.Proof{
		PackageID:  packageID,
		AgentID:    actor.ID,
		StorageKey: key,
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info(ctx, "proof upload requested", "package_id", packageID, "proof_id", proof.ID)
	return proof, url, nil
}

// MarkUploaded records that the client finished the PUT.
func (s *ProofService) MarkUploaded(ctx context.Context, actor models.Actor, proofID string) error {

	proof, err := s.proofs.Get(ctx, proofID)
	if err != nil {
		return err
	}
	if proof.AgentID != actor.ID && actor.Role != models.RoleAdmin {
		return common.ErrForbidden
	}

	return s.proofs.MarkUploaded(ctx, proofID)
}

// GetDownloadURL returns a presigned GET URL for the latest uploaded
// proof of the package. Proofs can identify the recipient, so access
// follows the decrypt policy.
func (s *ProofService) GetDownloadURL(ctx context.Context, actor models.Actor, packageID string) (string, error) {

	pkg, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return "", err
	}

	if !policy.CanDecrypt(actor, pkg) {
		return "", common.ErrForbidden
	}

	proof, err := s.proofs.GetLatestByPackage(ctx, packageID)
	if err != nil {
		return "", err
	}
	if !proof.Uploaded {
		return "", common.ErrNotFound
	}

	return s.presignedGetURL(ctx, proof.StorageKey)
}
