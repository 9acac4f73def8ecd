package models

import (
	"fmt"
	"strings"
)

// Role 用户角色，只允许以下三个取值
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleEditor  Role = "Editor"
	RoleVisitor Role = "Visitor"
)

// Roles 全部角色
var Roles = []Role{RoleAdmin, RoleEditor, RoleVisitor}

// ParseRole 解析角色字符串（大小写不敏感）
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid 判断是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleVisitor:
		return true
	}
	return false
}

// Privacy 图片 / 相册可见性
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

// ParsePrivacy 解析可见性，空字符串视为 public
func ParsePrivacy(s string) (Privacy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return PrivacyPublic, nil
	case "private":
		return PrivacyPrivate, nil
	}
	return "", fmt.Errorf("unknown privacy %q", s)
}
