package model

import "errors"

// 业务错误
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrInvalidCaptcha  = errors.New("captcha answer is invalid or expired")

	ErrInvalidUserName = errors.New("user name must be 1-50 latin letters, digits or underscores")
	ErrInvalidEmail    = errors.New("email format is invalid")
	ErrInvalidHomePage = errors.New("home page must be a valid http or https URL")
	ErrInvalidText     = errors.New("text must not be empty and must not exceed the maximum length")

	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
	ErrFileTooLarge       = errors.New("text file exceeds the maximum size of 100 KB")
	ErrFileNotFound       = errors.New("file not found")
)
