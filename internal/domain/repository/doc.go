// Package repository define las entidades del dominio y las interfaces de
// persistencia que consumen los services. Los adapters concretos viven en
// internal/store.
package repository
