package service

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"comments-service/internal/model"
)

const (
	maxTextFileSize = 100 * 1024
	maxImageWidth   = 320
	maxImageHeight  = 240
)

// 扩展名到内容类型的白名单，不在表内的文件一律拒绝
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".png":  "image/png",
	".txt":  "text/plain",
}

// StorageService 附件文件存储
// 图片超出320x240时等比缩小，文本文件限制100KB
type StorageService struct {
	dir string
}

// NewStorageService 创建文件存储服务，目录不存在时自动创建
func NewStorageService(dir string) (*StorageService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &StorageService{dir: dir}, nil
}

// Save 保存上传文件并返回附件记录
func (s *StorageService) Save(fileName string, file io.Reader) (*model.Attachment, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	contentType, ok := allowedExtensions[ext]
	if !ok {
		return nil, model.ErrFileTypeNotAllowed
	}

	storedName := strings.ReplaceAll(uuid.NewString(), "-", "") + ext

	var data []byte
	var kind string
	var err error
	if ext == ".txt" {
		kind = model.AttachmentKindText
		data, err = readTextFile(file)
	} else {
		kind = model.AttachmentKindImage
		data, err = processImage(file, ext)
	}
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, storedName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &model.Attachment{
		FileName:       filepath.Base(fileName),
		StoredFileName: storedName,
		ContentType:    contentType,
		FileSizeBytes:  int64(len(data)),
		Kind:           kind,
	}, nil
}

// Open 按存储文件名打开文件，路径被约束在上传目录内
func (s *StorageService) Open(storedName string) (*os.File, error) {
	name := filepath.Base(storedName)
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrFileNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Remove 删除已存储的文件，文件不存在时不算错误
func (s *StorageService) Remove(storedName string) error {
	name := filepath.Base(storedName)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func readTextFile(file io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxTextFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	if len(data) > maxTextFileSize {
		return nil, model.ErrFileTooLarge
	}
	return data, nil
}

// processImage 解码图片并在超出限制时等比缩小
func processImage(file io.Reader, ext string) ([]byte, error) {
	img, err := imaging.Decode(file)
	if err != nil {
		return nil, model.ErrFileTypeNotAllowed
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxImageWidth || bounds.Dy() > maxImageHeight {
		img = imaging.Fit(img, maxImageWidth, maxImageHeight, imaging.Lanczos)
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, model.ErrFileTypeNotAllowed
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
