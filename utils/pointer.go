package utils

// Ptr 返回 v 的指针，便于填充可选字段
func Ptr[T any](v T) *T { return &v }
