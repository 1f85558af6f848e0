package band

import "fmt"

// OverlapError 表示同侧带在 margin 区间上重叠，配置整体无效。
type OverlapError struct {
	Side Side
}

func (e OverlapError) Error() string {
	return fmt.Sprintf("%s bands overlap in margin range", e.Side)
}

// NewSet 构建并校验单侧带集合。任何一对带重叠都会让整侧失效，
// 宁可全部拒绝也不部分生效。
func NewSet(side Side, specs []Spec) ([]Band, error) {
	bands := make([]Band, 0, len(specs))
	for _, s := range specs {
		b, err := New(side, s)
		if err != nil {
			return nil, err
		}
		bands = append(bands, b)
	}
	if Overlap(bands) {
		return nil, OverlapError{Side: side}
	}
	return bands, nil
}

// Overlap 对集合做两两区间相交检测。
func Overlap(bands []Band) bool {
	for i := range bands {
		for j := i + 1; j < len(bands); j++ {
			if twoOverlap(bands[i], bands[j]) {
				return true
			}
		}
	}
	return false
}

func twoOverlap(b1, b2 Band) bool {
	return b1.MinMargin < b2.MaxMargin && b2.MinMargin < b1.MaxMargin
}
