package mem

import (
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Storage", func() {
	It("should read and write in single unit", func() {
		storage := NewStorage(4 * KB)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(0, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2}))

		res, err = storage.Read(1, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across units", func() {
		storage := NewStorage(8 * KB)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(4094, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should read into a caller-owned buffer", func() {
		storage := NewStorageWithUnitSize(64, 8)
		data := make([]byte, 20)
		for i := range data {
			data[i] = byte(i + 1)
		}
		Expect(storage.Write(5, data)).To(Succeed())

		buf := make([]byte, 20)
		Expect(storage.ReadInto(5, buf)).To(Succeed())
		Expect(buf).To(Equal(data))
	})

	It("should return zeros for untouched memory", func() {
		storage := NewStorage(1 * GB)

		res, err := storage.Read(0x1000_0000, 16)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(make([]byte, 16)))
	})

	It("should return error if accessing over the capacity", func() {
		storage := NewStorage(4 * KB)

		err := storage.Write(4095, []byte{1, 2})
		Expect(errors.Cause(err)).To(Equal(ErrOutOfRange))

		_, err = storage.Read(4097, 1)
		Expect(errors.Cause(err)).To(Equal(ErrOutOfRange))
	})
})
