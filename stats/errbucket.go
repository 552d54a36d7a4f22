package stats

import "sort"

// ErrBuckets
//
// 用來快速定位質量偏差 -> DistReport 位置
//
// 請勿修改預設值
//   - err區間: 相對偏差區間 [0,1e-6), [1e-6,1e-5), ..., [0.5,+inf)
type ErrBuckets struct {
	errBucket    []float64
	errBucketStr []string
}

// Buckets
//
// 質量偏差直方圖的共用邊界。偏差是相對值（|share - 1/P| 相對於 1/P），
// 跨好幾個數量級，所以用對數刻度分桶。
var Buckets *ErrBuckets = &ErrBuckets{
	errBucket:    []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.05, 0.1, 0.2, 0.5},
	errBucketStr: []string{"[0,1e-6)", "[1e-6,1e-5)", "[1e-5,1e-4)", "[1e-4,1e-3)", "[1e-3,1e-2)", "[1e-2,0.05)", "[0.05,0.1)", "[0.1,0.2)", "[0.2,0.5)", "[0.5,+inf)"},
}

func (b *ErrBuckets) ErrBucketStr() []string {
	return b.errBucketStr
}

// Index 回傳偏差值所屬的桶位。邊界數量固定且小，二分搜尋即可。
func (b *ErrBuckets) Index(err float64) int {
	if err < 0 {
		err = -err
	}
	return sort.Search(len(b.errBucket), func(i int) bool { return b.errBucket[i] > err })
}

// Len 回傳桶數（= len(errBucket)+1）。
func (b *ErrBuckets) Len() int {
	return len(b.errBucketStr)
}
