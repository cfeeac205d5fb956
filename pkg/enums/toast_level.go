package enums

// ToastLevel classifies user-facing notifications.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastLoading ToastLevel = "loading"
)

func (l ToastLevel) IsValid() bool {
	switch l {
	case ToastSuccess, ToastError, ToastLoading:
		return true
	}
	return false
}
