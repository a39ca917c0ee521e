/*
 * rhdl - RV32IMA reference core
 *
 * Copyright 2026, rhdl contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package rv32

// Ports names every flat port of the "rv32core" module so the harness never
// stringly-references a port name outside this one place.
type Ports struct {
	Clk, Rst string

	InstData string
	InstAddr string

	MemReadData, MemWriteData string
	MemAddr                   string
	MemReadEn, MemWriteEn     string
	MemSize, MemUnsigned      string

	IRQSoftware, IRQTimer, IRQExternal string

	IPTWAddr1, IPTWAddr2, IPTWData1, IPTWData2 string
	DPTWAddr1, DPTWAddr2, DPTWData1, DPTWData2 string

	DbgRegAddr, DbgRegData string
	DbgCSRAddr, DbgCSRData string
	DbgPC                  string
}

// P is the fixed port naming for every rv32core instance.
var P = Ports{
	Clk: "clk",
	Rst: "rst",

	InstData: "inst_data",
	InstAddr: "inst_addr",

	MemReadData:  "mem_read_data",
	MemWriteData: "mem_write_data",
	MemAddr:      "mem_addr",
	MemReadEn:    "mem_read_en",
	MemWriteEn:   "mem_write_en",
	MemSize:      "mem_size",
	MemUnsigned:  "mem_unsigned",

	IRQSoftware: "irq_software",
	IRQTimer:    "irq_timer",
	IRQExternal: "irq_external",

	IPTWAddr1: "iptw_addr1",
	IPTWAddr2: "iptw_addr2",
	IPTWData1: "iptw_data1",
	IPTWData2: "iptw_data2",
	DPTWAddr1: "dptw_addr1",
	DPTWAddr2: "dptw_addr2",
	DPTWData1: "dptw_data1",
	DPTWData2: "dptw_data2",

	DbgRegAddr: "dbg_reg_addr",
	DbgRegData: "dbg_reg_data",
	DbgCSRAddr: "dbg_csr_addr",
	DbgCSRData: "dbg_csr_data",
	DbgPC:      "dbg_pc",
}
