// Package access 实现图片和相册的访问控制决策
package access

import (
	"github.com/anoixa/clone-gallery/database/models"
	"github.com/anoixa/clone-gallery/utils"
)

// Requester 发起请求的身份，匿名访问为 nil
type Requester struct {
	ID   string
	Role models.Role
}

// Resource 受访问控制的对象（图片、相册）
type Resource struct {
	OwnerID string
	Privacy models.Privacy
}

// ImageResource 图片的访问控制视图
func ImageResource(img *models.Image) Resource {
	return Resource{OwnerID: img.UploaderID, Privacy: img.Privacy}
}

// AlbumResource 相册的访问控制视图
func AlbumResource(a *models.Album) Resource {
	return Resource{OwnerID: a.CreatedBy, Privacy: a.Privacy}
}

// IsAdmin 判断请求者是否为管理员
func (r *Requester) IsAdmin() bool {
	if r == nil {
		return false
	}
	switch r.Role {
	case models.RoleAdmin:
		return true
	case models.RoleEditor, models.RoleVisitor:
		return false
	default:
		return r.unknownRole()
	}
}

// unknownRole 角色值来自数据库，无法识别时按最低权限处理
func (r *Requester) unknownRole() bool {
	utils.Log.WithField("user_id", r.ID).Warnf("[Access] Unknown role %q, denying", utils.SanitizeLogMessage(string(r.Role)))
	return false
}

func (r *Requester) owns(res Resource) bool {
	return r != nil && r.ID != "" && r.ID == res.OwnerID
}

// CanRead 公开资源、管理员或所有者可读
func CanRead(r *Requester, res Resource) bool {
	if res.Privacy == models.PrivacyPublic {
		return true
	}
	return r.IsAdmin() || r.owns(res)
}

// CanWrite 仅管理员或所有者可修改 / 删除
func CanWrite(r *Requester, res Resource) bool {
	return r.IsAdmin() || r.owns(res)
}

// CanUpload 管理员和编辑可以上传，访客只读
func CanUpload(r *Requester) bool {
	if r == nil {
		return false
	}
	switch r.Role {
	case models.RoleAdmin, models.RoleEditor:
		return true
	case models.RoleVisitor:
		return false
	default:
		return r.unknownRole()
	}
}

// CanAssignRole 注册或创建用户时允许的角色
// 自助注册只能是 Editor / Visitor，Admin 只能由管理员创建
func CanAssignRole(r *Requester, role models.Role) bool {
	switch role {
	case models.RoleAdmin:
		return r.IsAdmin()
	case models.RoleEditor, models.RoleVisitor:
		return true
	default:
		return false
	}
}

// Filter 调用方显式给出的列表过滤条件
type Filter struct {
	UploaderID string
	Privacy    models.Privacy
}

// Scope 列表查询的有效范围
type Scope struct {
	// AllPrivate 为 true 时不附加可见性限制
	AllPrivate bool
	// ViewerID 非管理员只能看到公开资源或 ViewerID 自己的资源
	ViewerID   string
	UploaderID string
	Privacy    models.Privacy
}

// ListScope 非管理员的有效范围为 "公开 OR 自己的"，再与显式过滤条件取交集
func ListScope(r *Requester, f Filter) Scope {
	s := Scope{UploaderID: f.UploaderID, Privacy: f.Privacy}
	if r.IsAdmin() {
		s.AllPrivate = true
		return s
	}
	if r != nil {
		s.ViewerID = r.ID
	}
	return s
}

// Allows 判断单个资源是否落在范围内，与数据库查询语义一致
func (s Scope) Allows(res Resource) bool {
	if s.UploaderID != "" && res.OwnerID != s.UploaderID {
		return false
	}
	if s.Privacy != "" && res.Privacy != s.Privacy {
		return false
	}
	if s.AllPrivate {
		return true
	}
	return res.Privacy == models.PrivacyPublic || (s.ViewerID != "" && res.OwnerID == s.ViewerID)
}
